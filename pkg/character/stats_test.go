package character

import (
	"encoding/json"
	"math"
	"testing"
)

func TestDefaultStatsAllSentinel(t *testing.T) {
	st := DefaultStats()
	if st.MaxHP != UnknownStat || st.HP != UnknownStat || st.MaxMP != UnknownStat || st.MP != UnknownStat {
		t.Errorf("Expected sentinel pools, got %+v", st)
	}
	if st.Hit != UnknownStat || st.Def != UnknownStat || st.Eva != UnknownStat || st.Blk != UnknownStat {
		t.Errorf("Expected sentinel ratings, got %+v", st)
	}
}

func TestStatsApplyCoercion(t *testing.T) {
	tests := []struct {
		name  string
		patch StatsPatch
		check func(*testing.T, Stats)
	}{
		{
			name:  "int values",
			patch: StatsPatch{"maxHp": 100, "hp": 40},
			check: func(t *testing.T, s Stats) {
				if s.MaxHP != 100 || s.HP != 40 {
					t.Errorf("got %d/%d", s.HP, s.MaxHP)
				}
			},
		},
		{
			name:  "float truncates to int pools",
			patch: StatsPatch{"hp": 12.9},
			check: func(t *testing.T, s Stats) {
				if s.HP != 12 {
					t.Errorf("got hp %d, want 12", s.HP)
				}
			},
		},
		{
			name:  "numeric string",
			patch: StatsPatch{"def": "0.75", "mp": "30"},
			check: func(t *testing.T, s Stats) {
				if s.Def != 0.75 || s.MP != 30 {
					t.Errorf("got def %v mp %d", s.Def, s.MP)
				}
			},
		},
		{
			name:  "json number",
			patch: StatsPatch{"hit": json.Number("0.95")},
			check: func(t *testing.T, s Stats) {
				if s.Hit != 0.95 {
					t.Errorf("got hit %v", s.Hit)
				}
			},
		},
		{
			name:  "garbage keeps previous value",
			patch: StatsPatch{"hp": "lots", "eva": map[string]any{}, "blk": math.NaN()},
			check: func(t *testing.T, s Stats) {
				if s.HP != UnknownStat || s.Eva != UnknownStat || s.Blk != UnknownStat {
					t.Errorf("unconvertible values must keep the sentinel, got %+v", s)
				}
			},
		},
		{
			name:  "out of range pools keep previous value",
			patch: StatsPatch{"hp": 1e12, "maxHp": float64(math.MinInt32) * 4},
			check: func(t *testing.T, s Stats) {
				if s.HP != UnknownStat || s.MaxHP != UnknownStat {
					t.Errorf("Out-of-range pool values must keep the sentinel, got %+v", s)
				}
			},
		},
		{
			name:  "absent keys untouched",
			patch: StatsPatch{"hp": 5},
			check: func(t *testing.T, s Stats) {
				if s.MaxHP != UnknownStat {
					t.Errorf("maxHp must stay sentinel, got %d", s.MaxHP)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := DefaultStats()
			st.apply(tt.patch)
			tt.check(t, st)
		})
	}
}

func TestStoreLazySeedFromProfile(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Profile{
		UID:   "A1",
		Code:  "priest",
		Stats: StatsPatch{"maxHp": 54, "hp": 54, "hit": 0.9},
	})
	store := NewStore(reg)

	st := store.Get("A1")
	if st.MaxHP != 54 || st.HP != 54 || st.Hit != 0.9 {
		t.Errorf("Expected profile seed, got %+v", st)
	}
	if st.MaxMP != UnknownStat {
		t.Errorf("Unseeded fields must stay sentinel, got %d", st.MaxMP)
	}

	// Unknown UID starts fully sentinel
	if st := store.Get("ZZ"); st != DefaultStats() {
		t.Errorf("Expected sentinel record for unknown uid, got %+v", st)
	}
}

func TestStoreSetMergesAndPersists(t *testing.T) {
	store := NewStore(nil)

	first := store.Set("A1", StatsPatch{"maxHp": 40, "hp": 40})
	if first.HP != 40 {
		t.Fatalf("got %+v", first)
	}

	second := store.Set("A1", StatsPatch{"hp": 22})
	if second.HP != 22 || second.MaxHP != 40 {
		t.Errorf("Partial patch must keep prior fields, got %+v", second)
	}

	if got := store.Get("A1"); got != second {
		t.Errorf("Get after Set mismatch: %+v vs %+v", got, second)
	}
}

func TestStoreSnapshotRestore(t *testing.T) {
	store := NewStore(nil)
	store.Set("A1", StatsPatch{"hp": 9})

	snap := store.Snapshot()
	if snap["A1"].HP != 9 {
		t.Fatalf("got %+v", snap)
	}

	other := NewStore(nil)
	other.Restore(snap)
	if other.Get("A1").HP != 9 {
		t.Errorf("Restore lost data: %+v", other.Get("A1"))
	}

	// Snapshot is detached from the live table
	store.Set("A1", StatsPatch{"hp": 1})
	if snap["A1"].HP != 9 {
		t.Errorf("Snapshot must not alias the live table")
	}
}
