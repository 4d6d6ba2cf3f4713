package state

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
)

func TestFlagTableScoping(t *testing.T) {
	table := make(FlagTable)

	table.Set("intro", "met_simon", true)
	table.Set("area_a", "met_simon", false)

	if !table.Get("intro", "met_simon") {
		t.Error("Expected intro flag set")
	}
	if table.Get("area_a", "met_simon") {
		t.Error("Same flag name under another dialogue is independent")
	}
	if table.Get("intro", "unset") {
		t.Error("Unset flags default to false")
	}
	if table.Get("nothing", "at_all") {
		t.Error("Unknown dialogue defaults to false")
	}
}

func TestFlagTableHasAll(t *testing.T) {
	table := make(FlagTable)
	table.Set("T", "a", true)
	table.Set("T", "b", true)
	table.Set("T", "c", false)

	if !table.HasAll("T", nil) {
		t.Error("Empty list is vacuously true")
	}
	if !table.HasAll("T", []string{"a", "b"}) {
		t.Error("Expected a+b satisfied")
	}
	if table.HasAll("T", []string{"a", "c"}) {
		t.Error("A false flag fails the conjunction")
	}
	if table.HasAll("T", []string{"a", "missing"}) {
		t.Error("A missing flag fails the conjunction")
	}
}

func TestSaveStateJSONRoundTrip(t *testing.T) {
	st := NewSaveState()
	st.Session = Session{Active: true, DialogueID: "intro", NodeID: "COLD"}
	st.Flags.Set("intro", "woke_up", true)
	st.Stats["000000"] = character.Stats{MaxHP: 50, HP: 41, MaxMP: 10, MP: 10, Hit: 0.9, Def: 0.2, Eva: 0.1, Blk: 0}
	st.World = World{OverlayMode: "fade_to_fog", InputLocked: true}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Failed to marshal save state: %v", err)
	}

	var back SaveState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal save state: %v", err)
	}

	if back.Session != st.Session {
		t.Errorf("Session mismatch: %+v vs %+v", back.Session, st.Session)
	}
	if !back.Flags.Get("intro", "woke_up") {
		t.Error("Flags lost in round trip")
	}
	if back.Stats["000000"].HP != 41 {
		t.Errorf("Stats lost in round trip: %+v", back.Stats["000000"])
	}
	if back.World.OverlayMode != "fade_to_fog" || !back.World.InputLocked {
		t.Errorf("World lost in round trip: %+v", back.World)
	}
}

func TestNewSnapshot(t *testing.T) {
	st := NewSaveState()
	st.Session = Session{Active: true, DialogueID: "intro", NodeID: "COLD"}

	a := NewSnapshot("chapter_1", st)
	b := NewSnapshot("chapter_1", st)

	if a.ID == b.ID {
		t.Error("Snapshots must get distinct ids")
	}
	if a.Tag != "chapter_1" {
		t.Errorf("Expected tag chapter_1, got %s", a.Tag)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt must be stamped")
	}
	if a.State.Session.NodeID != "COLD" {
		t.Errorf("State not captured: %+v", a.State.Session)
	}
}
