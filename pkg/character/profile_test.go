package character

import (
	"encoding/json"
	"testing"
)

func TestNewRegistryHasProtagonist(t *testing.T) {
	reg := NewRegistry()

	p, ok := reg.Get(ProtagonistUID)
	if !ok {
		t.Fatal("Expected protagonist pre-registered")
	}
	if p.Code != "protagonist" {
		t.Errorf("Expected code protagonist, got %s", p.Code)
	}
	if !reg.Has(ProtagonistUID) {
		t.Error("Has must report the protagonist")
	}
}

func TestRegistryRegisterOverwrites(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Profile{UID: "A1", PublicName: "Stranger"})
	reg.Register(Profile{UID: "A1", PublicName: "Father Simon", RealName: "Simon Weiss"})

	p, ok := reg.Get("A1")
	if !ok || p.PublicName != "Father Simon" {
		t.Errorf("Expected last registration to win, got %+v", p)
	}

	// Protagonist can be replaced with a fleshed-out profile too
	reg.Register(Profile{UID: ProtagonistUID, Code: "protagonist", PublicName: "You"})
	p, _ = reg.Get(ProtagonistUID)
	if p.PublicName != "You" {
		t.Errorf("Expected protagonist override, got %+v", p)
	}
}

func TestRegistryIgnoresEmptyUID(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Profile{PublicName: "nobody"})

	// Only the protagonist remains
	if uids := reg.UIDs(); len(uids) != 1 || uids[0] != ProtagonistUID {
		t.Errorf("Expected only the protagonist, got %v", uids)
	}
}

func TestProfileJSON(t *testing.T) {
	data := `{
		"uid": "A1",
		"code": "priest",
		"public_name": "Father Simon",
		"real_name": "Simon Weiss",
		"faction": "church",
		"faction_rank": "vicar",
		"actor_id": 12,
		"stats": {"maxHp": 54, "hp": 54}
	}`

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Failed to unmarshal profile: %v", err)
	}
	if p.UID != "A1" || p.PublicName != "Father Simon" || p.ActorID != 12 {
		t.Errorf("Unexpected profile: %+v", p)
	}
	if p.Stats["maxHp"] != float64(54) {
		t.Errorf("Expected stats template, got %v", p.Stats)
	}
}
