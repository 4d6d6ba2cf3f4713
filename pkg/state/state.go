package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/character"
)

// Session is the runtime's pointer to which script and node are active.
// At most one session exists; starting a new dialogue overwrites it.
type Session struct {
	Active     bool   `json:"active"`
	DialogueID string `json:"dialogue_id,omitempty"`
	NodeID     string `json:"node_id,omitempty"`
}

// FlagTable holds per-dialogue boolean flags. The same flag name under
// two dialogue ids is independent state.
type FlagTable map[string]map[string]bool

// Get reads a flag, defaulting to false when unset.
func (t FlagTable) Get(dialogueID, flag string) bool {
	return t[dialogueID][flag]
}

// Set writes a flag, creating the dialogue's map as needed.
func (t FlagTable) Set(dialogueID, flag string, value bool) {
	flags, ok := t[dialogueID]
	if !ok {
		flags = make(map[string]bool)
		t[dialogueID] = flags
	}
	flags[flag] = value
}

// HasAll reports whether every named flag is set. Vacuously true for an
// empty list.
func (t FlagTable) HasAll(dialogueID string, flags []string) bool {
	for _, flag := range flags {
		if !t.Get(dialogueID, flag) {
			return false
		}
	}
	return true
}

// World is global persisted state outside any one dialogue.
type World struct {
	OverlayMode     string    `json:"overlay_mode,omitempty"`
	InputLocked     bool      `json:"input_locked,omitempty"`
	LastAutosaveTag string    `json:"last_autosave_tag,omitempty"`
	LastAutosaveAt  time.Time `json:"last_autosave_at,omitzero"`
}

// SaveState is the full logical save document.
type SaveState struct {
	Session Session                    `json:"dialogue_session"`
	Flags   FlagTable                  `json:"dialogue_flags,omitempty"`
	Stats   map[string]character.Stats `json:"character_stats,omitempty"`
	World   World                      `json:"world,omitempty"`
}

// NewSaveState returns an empty save document with initialized tables.
func NewSaveState() SaveState {
	return SaveState{
		Flags: make(FlagTable),
		Stats: make(map[string]character.Stats),
	}
}

// Snapshot is a point-in-time autosave copy of the save document.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Tag       string    `json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	State     SaveState `json:"state"`
}

// NewSnapshot captures st under a fresh id.
func NewSnapshot(tag string, st SaveState) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Tag:       tag,
		CreatedAt: time.Now(),
		State:     st,
	}
}
