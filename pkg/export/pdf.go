package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/collabboard/collabboard/pkg/models"
)

// PDF renders the snapshot as a paginated document: title, summary,
// notes grouped by theme, then groups. Page breaks are handled by
// gofpdf's auto page-break; emoji are written as-is and degrade to the
// font's replacement glyph in the core Helvetica fonts.
func PDF(snap models.Snapshot, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)

	pageWidth, pageHeight := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		pdf.SetY(pageHeight - 15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 10, "Generated by Collaborative Board", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Collaborative Board Export", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Exported: "+now.Format(timeLayout), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Notes: %d", len(snap.Notes)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total Groups: %d", len(snap.Groups)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Themes: "+strings.Join(snap.Themes, ", "), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	for _, section := range notesByTheme(snap.Notes) {
		pdf.SetFillColor(66, 133, 244)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 12)
		header := fmt.Sprintf("Theme: %s (%d notes)", section.theme, len(section.notes))
		pdf.CellFormat(0, 8, header, "", 1, "L", true, 0, "")
		pdf.Ln(2)
		pdf.SetTextColor(0, 0, 0)

		for _, note := range section.notes {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(pageWidth/2-20, 6, displayAuthor(note), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(100, 100, 100)
			created := time.UnixMilli(note.CreatedAt).Format(timeLayout)
			pdf.CellFormat(0, 6, created, "", 1, "R", false, 0, "")
			pdf.SetTextColor(0, 0, 0)

			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, note.Content, "", "L", false)
			pdf.Ln(1)

			if len(note.Reactions) > 0 {
				pdf.SetFont("Helvetica", "I", 8)
				pdf.SetTextColor(100, 100, 100)
				pdf.MultiCell(0, 4, "Reactions: "+reactionSummary(note.Reactions), "", "L", false)
				pdf.SetTextColor(0, 0, 0)
			}

			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(150, 150, 150)
			pdf.CellFormat(0, 5, "Color: "+note.Color, "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)

			pdf.SetDrawColor(200, 200, 200)
			y := pdf.GetY() + 2
			pdf.Line(15, y, pageWidth-15, y)
			pdf.Ln(6)
		}
		pdf.Ln(3)
	}

	if len(snap.Groups) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, "Groups", "", 1, "L", false, 0, "")
		pdf.Ln(2)

		for _, group := range snap.Groups {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 6, "- "+group.Name, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(0, 5, fmt.Sprintf("  Notes in group: %d", len(group.Notes)), "", 1, "L", false, 0, "")
			pdf.SetTextColor(100, 100, 100)
			pos := fmt.Sprintf("  Position: (%.0f, %.0f)", group.Position.X, group.Position.Y)
			pdf.CellFormat(0, 5, pos, "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}
	return buf.Bytes(), nil
}
