// Package export renders a board snapshot into downloadable artifacts.
// Every renderer is a pure function of the snapshot: no board-state
// side effects, no I/O beyond the returned bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/collabboard/collabboard/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Data is the JSON export envelope: the snapshot plus when it was taken.
type Data struct {
	Notes      []models.Note  `json:"notes"`
	Groups     []models.Group `json:"groups"`
	Themes     []string       `json:"themes"`
	ExportDate string         `json:"exportDate"`
}

// JSON renders the snapshot as indented JSON.
func JSON(snap models.Snapshot, now time.Time) ([]byte, error) {
	data := Data{
		Notes:      snap.Notes,
		Groups:     snap.Groups,
		Themes:     snap.Themes,
		ExportDate: now.UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(data, "", "  ")
}

// CSV renders the notes as a CSV table, one row per note.
func CSV(notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Theme", "Content", "Author Type", "Author Name", "Created Date", "Reactions", "Color"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, note := range notes {
		if err := w.Write([]string{
			note.Theme,
			note.Content,
			string(note.Author),
			displayAuthor(note),
			time.UnixMilli(note.CreatedAt).Format(timeLayout),
			reactionSummary(note.Reactions),
			note.Color,
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Markdown renders the full snapshot as a Markdown document: summary,
// notes grouped by theme, then groups.
func Markdown(snap models.Snapshot, now time.Time) []byte {
	var sb strings.Builder

	sb.WriteString("# Collaborative Board Export\n\n")
	fmt.Fprintf(&sb, "**Exported:** %s\n\n", now.Format(timeLayout))
	sb.WriteString("---\n\n")

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Total Notes:** %d\n", len(snap.Notes))
	fmt.Fprintf(&sb, "- **Total Groups:** %d\n", len(snap.Groups))
	fmt.Fprintf(&sb, "- **Themes:** %s\n\n", strings.Join(snap.Themes, ", "))
	sb.WriteString("---\n\n")

	sb.WriteString("## Notes by Theme\n\n")
	for _, section := range notesByTheme(snap.Notes) {
		fmt.Fprintf(&sb, "### %s (%d notes)\n\n", section.theme, len(section.notes))
		for _, note := range section.notes {
			fmt.Fprintf(&sb, "#### %s\n", displayAuthor(note))
			fmt.Fprintf(&sb, "*%s*\n\n", time.UnixMilli(note.CreatedAt).Format(timeLayout))
			fmt.Fprintf(&sb, "%s\n\n", note.Content)
			if len(note.Reactions) > 0 {
				fmt.Fprintf(&sb, "**Reactions:** %s\n\n", reactionSummary(note.Reactions))
			}
			fmt.Fprintf(&sb, "*Color: %s*\n\n", note.Color)
			sb.WriteString("---\n\n")
		}
	}

	if len(snap.Groups) > 0 {
		sb.WriteString("## Groups\n\n")
		for _, group := range snap.Groups {
			fmt.Fprintf(&sb, "### %s\n\n", group.Name)
			fmt.Fprintf(&sb, "- **Notes in group:** %d\n", len(group.Notes))
			fmt.Fprintf(&sb, "- **Position:** (%.0f, %.0f)\n", group.Position.X, group.Position.Y)
			fmt.Fprintf(&sb, "- **Size:** %.0f x %.0f\n\n", group.Size.Width, group.Size.Height)
		}
	}

	return []byte(sb.String())
}

type themeSection struct {
	theme string
	notes []models.Note
}

// notesByTheme buckets notes by theme in order of first appearance.
func notesByTheme(notes []models.Note) []themeSection {
	index := make(map[string]int)
	var sections []themeSection
	for _, note := range notes {
		i, ok := index[note.Theme]
		if !ok {
			i = len(sections)
			index[note.Theme] = i
			sections = append(sections, themeSection{theme: note.Theme})
		}
		sections[i].notes = append(sections[i].notes, note)
	}
	return sections
}

func displayAuthor(note models.Note) string {
	if note.AuthorName != "" {
		return note.AuthorName
	}
	return string(note.Author)
}

func reactionSummary(reactions []models.Reaction) string {
	if len(reactions) == 0 {
		return "None"
	}
	parts := make([]string, len(reactions))
	for i, r := range reactions {
		parts[i] = fmt.Sprintf("%s (%d)", r.Emoji, r.Count)
	}
	return strings.Join(parts, ", ")
}
