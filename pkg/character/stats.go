package character

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"
)

// UnknownStat is the sentinel for "not yet known". Consumers must treat
// negative values as absent, never as a real magnitude.
const UnknownStat = -1

// Stats is the mutable numeric state of one character. Integer fields
// hold HP/MP-style pools; the float fields are combat-flavor ratings
// used by narrative content only.
type Stats struct {
	MaxHP int32   `json:"maxHp"`
	HP    int32   `json:"hp"`
	MaxMP int32   `json:"maxMp"`
	MP    int32   `json:"mp"`
	Hit   float64 `json:"hit"`
	Def   float64 `json:"def"`
	Eva   float64 `json:"eva"`
	Blk   float64 `json:"blk"`
}

// DefaultStats returns a fully sentinel-valued record.
func DefaultStats() Stats {
	return Stats{
		MaxHP: UnknownStat,
		HP:    UnknownStat,
		MaxMP: UnknownStat,
		MP:    UnknownStat,
		Hit:   UnknownStat,
		Def:   UnknownStat,
		Eva:   UnknownStat,
		Blk:   UnknownStat,
	}
}

// StatsPatch is a partial update keyed by stat field name. Values may be
// any JSON scalar; unconvertible values leave the previous value in
// place, and absent keys are untouched.
type StatsPatch map[string]any

func toInt32(value any, prev int32) int32 {
	f, ok := toNumber(value)
	if !ok || f < math.MinInt32 || f > math.MaxInt32 {
		return prev
	}
	return int32(f)
}

func toFloat(value any, prev float64) float64 {
	f, ok := toNumber(value)
	if !ok {
		return prev
	}
	return f
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// apply merges a patch into s, field by field.
func (s *Stats) apply(patch StatsPatch) {
	if v, ok := patch["maxHp"]; ok {
		s.MaxHP = toInt32(v, s.MaxHP)
	}
	if v, ok := patch["hp"]; ok {
		s.HP = toInt32(v, s.HP)
	}
	if v, ok := patch["maxMp"]; ok {
		s.MaxMP = toInt32(v, s.MaxMP)
	}
	if v, ok := patch["mp"]; ok {
		s.MP = toInt32(v, s.MP)
	}
	if v, ok := patch["hit"]; ok {
		s.Hit = toFloat(v, s.Hit)
	}
	if v, ok := patch["def"]; ok {
		s.Def = toFloat(v, s.Def)
	}
	if v, ok := patch["eva"]; ok {
		s.Eva = toFloat(v, s.Eva)
	}
	if v, ok := patch["blk"]; ok {
		s.Blk = toFloat(v, s.Blk)
	}
}

// Store holds the per-UID stat records. Records are created lazily on
// first access, seeded from the registry profile's stat template when
// one exists.
type Store struct {
	mu       sync.Mutex
	registry *Registry
	byUID    map[string]Stats
}

// NewStore creates an empty stat store backed by the given registry.
// The registry may be nil, in which case unseen UIDs start fully
// sentinel-valued.
func NewStore(registry *Registry) *Store {
	return &Store{
		registry: registry,
		byUID:    make(map[string]Stats),
	}
}

// Get returns the stats for uid, creating the record if needed.
func (s *Store) Get(uid string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(uid)
}

// Set merges patch into the stats for uid and returns the result.
func (s *Store) Set(uid string, patch StatsPatch) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.ensure(uid)
	stats.apply(patch)
	s.byUID[uid] = stats
	return stats
}

func (s *Store) ensure(uid string) Stats {
	if stats, ok := s.byUID[uid]; ok {
		return stats
	}
	stats := DefaultStats()
	if s.registry != nil {
		if profile, ok := s.registry.Get(uid); ok && len(profile.Stats) > 0 {
			stats.apply(profile.Stats)
		}
	}
	s.byUID[uid] = stats
	return stats
}

// Snapshot copies the full table for persistence.
func (s *Store) Snapshot() map[string]Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Stats, len(s.byUID))
	for uid, stats := range s.byUID {
		out[uid] = stats
	}
	return out
}

// Restore replaces the table with a previously persisted snapshot.
func (s *Store) Restore(table map[string]Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUID = make(map[string]Stats, len(table))
	for uid, stats := range table {
		s.byUID[uid] = stats
	}
}
