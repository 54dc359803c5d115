// Package models defines the domain types shared by the board engine,
// the presence layer and the persistence adapters.
//
// The JSON tags on these types are a wire contract: the persisted board
// snapshot and the presence relay envelope both use them, so renaming a
// tag is a breaking change for existing board files and connected peers.
package models

import "time"

// Author identifies who created a note.
type Author string

const (
	AuthorHuman Author = "human"
	AuthorAI    Author = "ai"
)

// Position is a 2D world-space coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a bounding-box extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Reaction aggregates feedback on one note for one emoji symbol.
// Count always equals len(Users); a reaction whose user set becomes
// empty is removed from the note rather than kept at zero.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// Note is a content card on the board.
type Note struct {
	ID         NoteID     `json:"id"`
	Content    string     `json:"content"`
	Position   Position   `json:"position"`
	Color      string     `json:"color"`
	Theme      string     `json:"theme"`
	Author     Author     `json:"author"`
	AuthorName string     `json:"authorName,omitempty"`
	GroupID    *GroupID   `json:"groupId,omitempty"`
	CreatedAt  int64      `json:"createdAt"`
	Reactions  []Reaction `json:"reactions,omitempty"`
}

// Group is a visual container referencing zero or more notes.
// Membership in Notes and the back-reference Note.GroupID are kept in
// lockstep by the board engine; Notes never contains duplicates.
type Group struct {
	ID       GroupID  `json:"id"`
	Name     string   `json:"name"`
	Notes    []NoteID `json:"notes"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// ViewPort is the pan/zoom transform of the canvas. It is presentation
// state and is not part of the persisted snapshot.
type ViewPort struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// CursorPosition is an ephemeral presence record for one remote user.
// Timestamp is milliseconds since the Unix epoch, stamped by the sender.
type CursorPosition struct {
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	Timestamp int64   `json:"timestamp"`
}

// Age returns how long ago the cursor was last refreshed, as seen at now.
func (c CursorPosition) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(c.Timestamp))
}

// Identity is the stable local user identity. It is generated once,
// persisted indefinitely and reused across sessions. It is shared with
// the presence layer but is never part of the board snapshot.
type Identity struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

// Snapshot is the full durable board content: exactly the three
// collections the store adapter persists. Selection, viewport and
// identity are deliberately absent.
type Snapshot struct {
	Notes  []Note   `json:"notes"`
	Groups []Group  `json:"groups"`
	Themes []string `json:"themes"`
}

// DefaultThemes returns the seed content of the theme registry.
func DefaultThemes() []string {
	return []string{"General", "Ideas", "Todo", "Important", "Questions"}
}
