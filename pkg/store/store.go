// Package store defines the durable store adapter boundary for board
// content. A Store is a single key-value slot holding the full board
// snapshot; the board engine saves the whole snapshot after every
// mutation and loads it once at startup.
//
// Implementations must treat an absent snapshot as (nil, nil) rather
// than an error, so the caller can tell "nothing saved yet" apart from
// "saved but unreadable". How a malformed snapshot is reported is up to
// the implementation; the board engine recovers from either case by
// falling back to empty defaults.
package store

import "github.com/collabboard/collabboard/pkg/models"

// Store is the persistence slot for board content.
type Store interface {
	// Load returns the last saved snapshot, or nil if none exists.
	Load() (*models.Snapshot, error)

	// Save replaces the stored snapshot with snap.
	Save(snap models.Snapshot) error
}
