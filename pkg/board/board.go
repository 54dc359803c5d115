// Package board implements the board state engine: the single-writer
// owner of notes, groups, the theme registry, selection and the view
// transform.
//
// All mutation methods are synchronous and immediately consistent, and
// none of them can fail: operations on missing IDs are silent no-ops and
// duplicate add/remove calls are idempotent, because the optimistic UI
// on top must never see an error for a stale reference. Every content
// mutation triggers a full-snapshot save through the configured store;
// save failures are logged and swallowed, the next mutation's save being
// the de facto retry.
//
// The engine is not safe for concurrent use. It is designed for exactly
// one writer, and gets no locking on purpose.
package board

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/pkg/models"
	"github.com/collabboard/collabboard/pkg/store"
)

// Board owns all mutable board state.
type Board struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time

	notes  []models.Note
	groups []models.Group
	themes []string

	viewPort       models.ViewPort
	selectedNotes  []models.NoteID
	selectedGroups []models.GroupID
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger used for storage failures.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Board) { b.log = log }
}

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// New creates an empty board persisting through st. Call Load to pick
// up previously saved content.
func New(st store.Store, opts ...Option) *Board {
	b := &Board{
		store:    st,
		log:      zerolog.Nop(),
		now:      time.Now,
		themes:   models.DefaultThemes(),
		viewPort: models.ViewPort{Zoom: 1},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the board content with the stored snapshot. A missing
// or unreadable snapshot falls back to empty defaults; Load never fails.
func (b *Board) Load() {
	snap, err := b.store.Load()
	if err != nil {
		b.log.Error().Err(err).Msg("failed to load board, starting empty")
	}
	if snap == nil {
		b.notes = nil
		b.groups = nil
		b.themes = models.DefaultThemes()
		return
	}

	b.notes = snap.Notes
	b.groups = snap.Groups
	if len(snap.Themes) > 0 {
		b.themes = snap.Themes
	} else {
		b.themes = models.DefaultThemes()
	}
}

// Save writes the current snapshot through the store. Failures are
// logged, never returned: persistence is best-effort by design.
func (b *Board) Save() {
	if err := b.store.Save(b.Snapshot()); err != nil {
		b.log.Error().Err(err).Msg("failed to save board")
	}
}

// Snapshot returns a deep copy of the durable board content.
func (b *Board) Snapshot() models.Snapshot {
	return models.Snapshot{
		Notes:  b.Notes(),
		Groups: b.Groups(),
		Themes: b.Themes(),
	}
}

// Notes returns a copy of all notes in insertion order.
func (b *Board) Notes() []models.Note {
	notes := make([]models.Note, len(b.notes))
	for i, n := range b.notes {
		notes[i] = copyNote(n)
	}
	return notes
}

// Groups returns a copy of all groups in insertion order.
func (b *Board) Groups() []models.Group {
	groups := make([]models.Group, len(b.groups))
	for i, g := range b.groups {
		groups[i] = copyGroup(g)
	}
	return groups
}

// Themes returns the theme registry in insertion order.
func (b *Board) Themes() []string {
	return append([]string(nil), b.themes...)
}

// Note returns a copy of the note with the given ID.
func (b *Board) Note(id models.NoteID) (models.Note, bool) {
	if n := b.findNote(id); n != nil {
		return copyNote(*n), true
	}
	return models.Note{}, false
}

// Group returns a copy of the group with the given ID.
func (b *Board) Group(id models.GroupID) (models.Group, bool) {
	if g := b.findGroup(id); g != nil {
		return copyGroup(*g), true
	}
	return models.Group{}, false
}

// NoteUpdate is a partial-field merge for UpdateNote. Nil fields are
// left untouched.
type NoteUpdate struct {
	Content    *string
	Position   *models.Position
	Color      *string
	Theme      *string
	AuthorName *string
}

// GroupUpdate is a partial-field merge for UpdateGroup. Membership is
// not part of it; use AddNoteToGroup and RemoveNoteFromGroup.
type GroupUpdate struct {
	Name     *string
	Color    *string
	Position *models.Position
	Size     *models.Size
}

// CreateNote adds a new note and returns a copy of it. It never fails;
// an unregistered theme is accepted as-is.
func (b *Board) CreateNote(content string, pos models.Position, color, theme string, author models.Author, authorName string) models.Note {
	note := models.Note{
		ID:         models.NewNoteID(),
		Content:    content,
		Position:   pos,
		Color:      color,
		Theme:      theme,
		Author:     author,
		AuthorName: authorName,
		CreatedAt:  b.now().UnixMilli(),
	}
	b.notes = append(b.notes, note)
	b.Save()
	return copyNote(note)
}

// UpdateNote merges upd into the note with the given ID. Unknown IDs
// are a silent no-op: a concurrent delete-then-update race is expected
// under an optimistic UI.
func (b *Board) UpdateNote(id models.NoteID, upd NoteUpdate) {
	if n := b.findNote(id); n != nil {
		if upd.Content != nil {
			n.Content = *upd.Content
		}
		if upd.Position != nil {
			n.Position = *upd.Position
		}
		if upd.Color != nil {
			n.Color = *upd.Color
		}
		if upd.Theme != nil {
			n.Theme = *upd.Theme
		}
		if upd.AuthorName != nil {
			n.AuthorName = *upd.AuthorName
		}
	}
	b.Save()
}

// MoveNote updates only the note's position.
func (b *Board) MoveNote(id models.NoteID, pos models.Position) {
	b.UpdateNote(id, NoteUpdate{Position: &pos})
}

// DeleteNote removes the note and scrubs its ID from every group's
// membership list.
func (b *Board) DeleteNote(id models.NoteID) {
	for i, n := range b.notes {
		if n.ID == id {
			b.notes = append(b.notes[:i], b.notes[i+1:]...)
			break
		}
	}
	for i := range b.groups {
		b.groups[i].Notes = removeNoteID(b.groups[i].Notes, id)
	}
	b.Save()
}

// CreateGroup adds a new group containing the given notes and returns a
// copy of it. Each referenced note is detached from its previous group
// first, so membership stays single-homed. Unknown note IDs are dropped.
func (b *Board) CreateGroup(name string, noteIDs []models.NoteID, color string, pos models.Position, size models.Size) models.Group {
	group := models.Group{
		ID:       models.NewGroupID(),
		Name:     name,
		Color:    color,
		Position: pos,
		Size:     size,
	}
	b.groups = append(b.groups, group)

	for _, id := range noteIDs {
		b.attach(id, group.ID)
	}

	b.Save()
	return copyGroup(*b.findGroup(group.ID))
}

// UpdateGroup merges upd into the group with the given ID; unknown IDs
// are a silent no-op.
func (b *Board) UpdateGroup(id models.GroupID, upd GroupUpdate) {
	if g := b.findGroup(id); g != nil {
		if upd.Name != nil {
			g.Name = *upd.Name
		}
		if upd.Color != nil {
			g.Color = *upd.Color
		}
		if upd.Position != nil {
			g.Position = *upd.Position
		}
		if upd.Size != nil {
			g.Size = *upd.Size
		}
	}
	b.Save()
}

// DeleteGroup removes the group, clearing the back-reference on every
// formerly-member note.
func (b *Board) DeleteGroup(id models.GroupID) {
	for i, g := range b.groups {
		if g.ID != id {
			continue
		}
		for _, noteID := range g.Notes {
			if n := b.findNote(noteID); n != nil {
				n.GroupID = nil
			}
		}
		b.groups = append(b.groups[:i], b.groups[i+1:]...)
		break
	}
	b.Save()
}

// AddNoteToGroup moves the note into the group, detaching it from any
// previous group. A no-op if either side does not exist.
func (b *Board) AddNoteToGroup(noteID models.NoteID, groupID models.GroupID) {
	if b.findGroup(groupID) != nil {
		b.attach(noteID, groupID)
	}
	b.Save()
}

// RemoveNoteFromGroup detaches the note from whatever group it is in.
func (b *Board) RemoveNoteFromGroup(noteID models.NoteID) {
	b.detach(noteID)
	b.Save()
}

// attach moves a note into a group, maintaining both sides of the link.
// The group must exist; unknown notes are ignored.
func (b *Board) attach(noteID models.NoteID, groupID models.GroupID) {
	n := b.findNote(noteID)
	if n == nil {
		return
	}
	b.detach(noteID)

	g := b.findGroup(groupID)
	g.Notes = append(g.Notes, noteID)
	gid := groupID
	n.GroupID = &gid
}

// detach clears a note's membership on both sides of the link.
func (b *Board) detach(noteID models.NoteID) {
	n := b.findNote(noteID)
	if n == nil || n.GroupID == nil {
		return
	}
	if g := b.findGroup(*n.GroupID); g != nil {
		g.Notes = removeNoteID(g.Notes, noteID)
	}
	n.GroupID = nil
}

// AddReaction records that userID reacted to the note with emoji.
// Reacting twice with the same emoji is a no-op.
func (b *Board) AddReaction(noteID models.NoteID, emoji, userID string) {
	if n := b.findNote(noteID); n != nil {
		addReaction(n, emoji, userID)
	}
	b.Save()
}

// RemoveReaction withdraws userID's reaction. The reaction entry is
// deleted entirely once its user set becomes empty.
func (b *Board) RemoveReaction(noteID models.NoteID, emoji, userID string) {
	if n := b.findNote(noteID); n != nil {
		removeReaction(n, emoji, userID)
	}
	b.Save()
}

func addReaction(n *models.Note, emoji, userID string) {
	for i := range n.Reactions {
		r := &n.Reactions[i]
		if r.Emoji != emoji {
			continue
		}
		for _, u := range r.Users {
			if u == userID {
				return
			}
		}
		r.Users = append(r.Users, userID)
		r.Count = len(r.Users)
		return
	}
	n.Reactions = append(n.Reactions, models.Reaction{
		Emoji: emoji,
		Count: 1,
		Users: []string{userID},
	})
}

func removeReaction(n *models.Note, emoji, userID string) {
	for i := range n.Reactions {
		r := &n.Reactions[i]
		if r.Emoji != emoji {
			continue
		}
		for j, u := range r.Users {
			if u == userID {
				r.Users = append(r.Users[:j], r.Users[j+1:]...)
				r.Count = len(r.Users)
				break
			}
		}
		if r.Count == 0 {
			n.Reactions = append(n.Reactions[:i], n.Reactions[i+1:]...)
		}
		return
	}
}

// AddTheme appends a theme to the registry, preserving order. Duplicate
// names are ignored.
func (b *Board) AddTheme(name string) {
	for _, t := range b.themes {
		if t == name {
			b.Save()
			return
		}
	}
	b.themes = append(b.themes, name)
	b.Save()
}

// SelectNotes replaces the note selection. Selection is presentation
// state and is never persisted.
func (b *Board) SelectNotes(ids []models.NoteID) {
	b.selectedNotes = append([]models.NoteID(nil), ids...)
}

// SelectGroups replaces the group selection.
func (b *Board) SelectGroups(ids []models.GroupID) {
	b.selectedGroups = append([]models.GroupID(nil), ids...)
}

// SelectedNotes returns the current note selection.
func (b *Board) SelectedNotes() []models.NoteID {
	return append([]models.NoteID(nil), b.selectedNotes...)
}

// SelectedGroups returns the current group selection.
func (b *Board) SelectedGroups() []models.GroupID {
	return append([]models.GroupID(nil), b.selectedGroups...)
}

// CheckConsistency verifies the bidirectional note/group link invariant
// and membership uniqueness, returning a description of the first
// violation found. It exists for tests and debugging; under normal
// operation it always returns nil.
func (b *Board) CheckConsistency() error {
	for _, g := range b.groups {
		seen := make(map[models.NoteID]bool, len(g.Notes))
		for _, noteID := range g.Notes {
			if seen[noteID] {
				return fmt.Errorf("group %s lists note %s twice", g.ID, noteID)
			}
			seen[noteID] = true

			n := b.findNote(noteID)
			if n == nil {
				return fmt.Errorf("group %s lists missing note %s", g.ID, noteID)
			}
			if n.GroupID == nil || *n.GroupID != g.ID {
				return fmt.Errorf("note %s is listed in group %s but does not point back", noteID, g.ID)
			}
		}
	}
	for _, n := range b.notes {
		if n.GroupID == nil {
			continue
		}
		g := b.findGroup(*n.GroupID)
		if g == nil {
			return fmt.Errorf("note %s points at missing group %s", n.ID, *n.GroupID)
		}
		if !containsNoteID(g.Notes, n.ID) {
			return fmt.Errorf("note %s points at group %s but is not in its list", n.ID, g.ID)
		}
	}
	return nil
}

func (b *Board) findNote(id models.NoteID) *models.Note {
	for i := range b.notes {
		if b.notes[i].ID == id {
			return &b.notes[i]
		}
	}
	return nil
}

func (b *Board) findGroup(id models.GroupID) *models.Group {
	for i := range b.groups {
		if b.groups[i].ID == id {
			return &b.groups[i]
		}
	}
	return nil
}

func copyNote(n models.Note) models.Note {
	if n.GroupID != nil {
		gid := *n.GroupID
		n.GroupID = &gid
	}
	if n.Reactions != nil {
		reactions := make([]models.Reaction, len(n.Reactions))
		for i, r := range n.Reactions {
			r.Users = append([]string(nil), r.Users...)
			reactions[i] = r
		}
		n.Reactions = reactions
	}
	return n
}

func copyGroup(g models.Group) models.Group {
	g.Notes = append([]models.NoteID(nil), g.Notes...)
	return g
}

func removeNoteID(ids []models.NoteID, id models.NoteID) []models.NoteID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func containsNoteID(ids []models.NoteID, id models.NoteID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
