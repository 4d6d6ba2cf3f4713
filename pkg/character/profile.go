package character

import (
	"sort"
	"sync"
)

// ProtagonistUID is always registered so dialogue scripts can reference
// the player character before any content pack loads.
const ProtagonistUID = "000000"

// Profile identifies a character by stable UID, independent of any
// host-engine actor index. Stats, when present, seeds the stat store's
// record for this UID on first access.
type Profile struct {
	UID         string `json:"uid"`
	Code        string `json:"code,omitempty"`
	PublicName  string `json:"public_name"`
	RealName    string `json:"real_name,omitempty"`
	Faction     string `json:"faction,omitempty"`
	FactionRank string `json:"faction_rank,omitempty"`
	Description string `json:"description,omitempty"`

	// ActorID is an optional bridge reference into the host engine.
	ActorID int `json:"actor_id,omitempty"`

	Stats StatsPatch `json:"stats,omitempty"`
}

// Registry is a static catalog of character profiles keyed by UID.
type Registry struct {
	mu    sync.RWMutex
	byUID map[string]Profile
}

// NewRegistry creates a registry with the protagonist placeholder
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{byUID: make(map[string]Profile)}
	r.Register(Profile{
		UID:        ProtagonistUID,
		Code:       "protagonist",
		PublicName: "???",
	})
	return r
}

// Register adds a profile. Profiles without a UID are ignored; a
// duplicate UID overwrites the prior registration.
func (r *Registry) Register(p Profile) {
	if p.UID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUID[p.UID] = p
}

func (r *Registry) Get(uid string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byUID[uid]
	return p, ok
}

func (r *Registry) Has(uid string) bool {
	_, ok := r.Get(uid)
	return ok
}

// UIDs returns all registered UIDs in sorted order.
func (r *Registry) UIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uids := make([]string, 0, len(r.byUID))
	for uid := range r.byUID {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}
