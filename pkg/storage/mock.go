package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for tests.
type MockStorage struct {
	mu         sync.RWMutex
	session    state.Session
	flags      state.FlagTable
	stats      map[string]character.Stats
	world      state.World
	snapshots  map[uuid.UUID]state.Snapshot
	scripts    map[string]*dialogue.Script
	characters []character.Profile
	pingError  error
	saveError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		flags:     make(state.FlagTable),
		stats:     make(map[string]character.Stats),
		snapshots: make(map[uuid.UUID]state.Snapshot),
		scripts:   make(map[string]*dialogue.Script),
	}
}

// SetPingError configures the mock to fail on ping.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures every save operation to fail.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddScript registers a script resource under a filename.
func (m *MockStorage) AddScript(filename string, s *dialogue.Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[filename] = s
}

// AddCharacter registers a character profile resource.
func (m *MockStorage) AddCharacter(p character.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters = append(m.characters, p)
}

// Snapshots returns all stored autosave snapshots.
func (m *MockStorage) Snapshots() []state.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]state.Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		out = append(out, snap)
	}
	return out
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context) (state.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s state.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.session = s
	return nil
}

func (m *MockStorage) LoadFlags(ctx context.Context) (state.FlagTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(state.FlagTable, len(m.flags))
	for id, flags := range m.flags {
		cp := make(map[string]bool, len(flags))
		for k, v := range flags {
			cp[k] = v
		}
		out[id] = cp
	}
	return out, nil
}

func (m *MockStorage) SaveFlags(ctx context.Context, t state.FlagTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.flags = make(state.FlagTable, len(t))
	for id, flags := range t {
		cp := make(map[string]bool, len(flags))
		for k, v := range flags {
			cp[k] = v
		}
		m.flags[id] = cp
	}
	return nil
}

func (m *MockStorage) LoadStats(ctx context.Context) (map[string]character.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]character.Stats, len(m.stats))
	for uid, stats := range m.stats {
		out[uid] = stats
	}
	return out, nil
}

func (m *MockStorage) SaveStats(ctx context.Context, t map[string]character.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.stats = make(map[string]character.Stats, len(t))
	for uid, stats := range t {
		m.stats[uid] = stats
	}
	return nil
}

func (m *MockStorage) LoadWorld(ctx context.Context) (state.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.world, nil
}

func (m *MockStorage) SaveWorld(ctx context.Context, w state.World) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.world = w
	return nil
}

func (m *MockStorage) SaveSnapshot(ctx context.Context, snap state.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.snapshots[snap.ID] = snap
	return nil
}

func (m *MockStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*state.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *MockStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.scripts))
	for filename, s := range m.scripts {
		out[s.Title] = filename
	}
	return out, nil
}

func (m *MockStorage) GetScript(ctx context.Context, filename string) (*dialogue.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[filename]
	if !ok {
		return nil, errors.New("script not found: " + filename)
	}
	return s, nil
}

func (m *MockStorage) ListCharacters(ctx context.Context) ([]character.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]character.Profile, len(m.characters))
	copy(out, m.characters)
	return out, nil
}
