// Package identity derives and persists the stable local user identity
// shared by the board engine and the presence layer.
//
// The identity is generated once and reused across sessions. The color
// is picked from a fixed palette at first generation and persisted
// alongside the id and name, so it does not re-roll on every load.
package identity

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/pkg/models"
)

// palette is the set of cursor colors assigned to users.
var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DFE6E9", "#74B9FF", "#A29BFE", "#FD79A8", "#FDCB6E",
}

// Provider loads and persists the local identity at a fixed path.
type Provider struct {
	path string
	log  zerolog.Logger
}

// NewProvider creates a provider storing the identity file at path.
func NewProvider(path string, log zerolog.Logger) *Provider {
	return &Provider{path: path, log: log}
}

// LoadOrCreate returns the persisted identity, generating and saving a
// fresh one if none exists or the file is unreadable. It never fails:
// if the new identity cannot be written, the in-memory identity is
// still returned and only lives for this session.
func (p *Provider) LoadOrCreate() models.Identity {
	data, err := os.ReadFile(p.path)
	if err == nil {
		var id models.Identity
		if jsonErr := json.Unmarshal(data, &id); jsonErr == nil && id.UserID != "" {
			if id.Color == "" {
				// Identities written before colors were persisted.
				id.Color = palette[rand.Intn(len(palette))]
				p.save(id)
			}
			return id
		}
		p.log.Warn().Str("path", p.path).Msg("identity file unreadable, regenerating")
	}

	id := models.Identity{
		UserID:   uuid.NewString(),
		UserName: fmt.Sprintf("User %d", rand.Intn(1000)),
		Color:    palette[rand.Intn(len(palette))],
	}
	p.save(id)
	return id
}

// SetName renames the identity and persists the change.
func (p *Provider) SetName(id models.Identity, name string) models.Identity {
	id.UserName = name
	p.save(id)
	return id
}

func (p *Provider) save(id models.Identity) {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		p.log.Error().Err(err).Msg("failed to create identity directory")
		return
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode identity")
		return
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		p.log.Error().Err(err).Msg("failed to write identity file")
	}
}
