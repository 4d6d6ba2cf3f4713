package dialogue

import (
	"sort"
	"sync"
)

// Registry is a static catalog of dialogue scripts keyed by id.
// Registration is last-wins: re-registering an id replaces the prior
// script, which lets content packs patch earlier ones.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Script
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Script)}
}

// Register adds a script. Nil scripts and scripts without an id are
// ignored.
func (r *Registry) Register(s *Script) {
	if s == nil || s.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
}

func (r *Registry) Get(id string) (*Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// IDs returns all registered script ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
