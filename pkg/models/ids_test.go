package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteIDRoundTrip(t *testing.T) {
	id := NewNoteID()
	assert.False(t, id.IsZero())

	parsed, err := ParseNoteID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseNoteID("not-a-uuid")
	assert.Error(t, err)
}

func TestNoteIDJSONIsAString(t *testing.T) {
	id := NewNoteID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var back NoteID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`42`), &back))
}

func TestGroupIDRoundTrip(t *testing.T) {
	id := NewGroupID()

	parsed, err := ParseGroupID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	var zero GroupID
	assert.True(t, zero.IsZero())
}

func TestCursorAge(t *testing.T) {
	now := time.UnixMilli(1700000005000)
	cur := CursorPosition{Timestamp: 1700000000000}
	assert.Equal(t, 5*time.Second, cur.Age(now))
}
