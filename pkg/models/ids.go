package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NoteID is a typed ID for notes.
type NoteID struct {
	uuid uuid.UUID
}

func NewNoteID() NoteID {
	return NoteID{uuid: uuid.New()}
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, fmt.Errorf("invalid note ID: %w", err)
	}
	return NoteID{uuid: id}, nil
}

func (n NoteID) UUID() uuid.UUID { return n.uuid }
func (n NoteID) String() string  { return n.uuid.String() }
func (n NoteID) IsZero() bool    { return n.uuid == uuid.Nil }

func (n NoteID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.uuid.String())
}

func (n *NoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	n.uuid = id
	return nil
}

// GroupID is a typed ID for groups.
type GroupID struct {
	uuid uuid.UUID
}

func NewGroupID() GroupID {
	return GroupID{uuid: uuid.New()}
}

func ParseGroupID(s string) (GroupID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return GroupID{}, fmt.Errorf("invalid group ID: %w", err)
	}
	return GroupID{uuid: id}, nil
}

func (g GroupID) UUID() uuid.UUID { return g.uuid }
func (g GroupID) String() string  { return g.uuid.String() }
func (g GroupID) IsZero() bool    { return g.uuid == uuid.Nil }

func (g GroupID) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.uuid.String())
}

func (g *GroupID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	g.uuid = id
	return nil
}
