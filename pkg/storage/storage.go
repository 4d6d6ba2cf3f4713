package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Storage defines a unified interface for all storage operations,
// combining save-state persistence (Redis) with static resource loading
// (filesystem). It is a superset of dialogue.StateStore, so a Storage
// can back the runtime directly.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Save-state operations (Redis-backed)
	LoadSession(ctx context.Context) (state.Session, error)
	SaveSession(ctx context.Context, s state.Session) error
	LoadFlags(ctx context.Context) (state.FlagTable, error)
	SaveFlags(ctx context.Context, t state.FlagTable) error
	LoadStats(ctx context.Context) (map[string]character.Stats, error)
	SaveStats(ctx context.Context, t map[string]character.Stats) error
	LoadWorld(ctx context.Context) (state.World, error)
	SaveWorld(ctx context.Context, w state.World) error

	// Autosave snapshot operations (Redis-backed)
	SaveSnapshot(ctx context.Context, snap state.Snapshot) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*state.Snapshot, error)

	// Dialogue script operations (filesystem-backed)
	ListScripts(ctx context.Context) (map[string]string, error)
	GetScript(ctx context.Context, filename string) (*dialogue.Script, error)

	// Character profile operations (filesystem-backed)
	ListCharacters(ctx context.Context) ([]character.Profile, error)
}

// Ensure the port stays a superset of what the runtime consumes.
var _ dialogue.StateStore = (Storage)(nil)
