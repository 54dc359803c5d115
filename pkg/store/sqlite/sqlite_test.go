package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabboard/collabboard/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	return s
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	s := testStore(t)

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	in := models.Snapshot{
		Notes: []models.Note{{
			ID:        models.NewNoteID(),
			Content:   "persisted",
			Theme:     "Todo",
			Author:    models.AuthorAI,
			CreatedAt: 1700000000000,
		}},
		Themes: models.DefaultThemes(),
	}

	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestSaveUpserts(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save(models.Snapshot{Themes: []string{"A"}}))
	require.NoError(t, s.Save(models.Snapshot{Themes: []string{"B"}}))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, out.Themes)

	// Still a single row.
	var count int64
	require.NoError(t, s.db.Model(&snapshotRow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReopenSeesSavedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(models.Snapshot{Themes: []string{"Kept"}}))

	second, err := Open(path)
	require.NoError(t, err)
	out, err := second.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"Kept"}, out.Themes)
}
