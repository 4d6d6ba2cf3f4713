package dialogue

import (
	"encoding/json"
	"testing"
)

func TestActionUnmarshalNative(t *testing.T) {
	data := `{
		"type": "skillCheck",
		"check": {"type": "str", "difficulty": 12, "base_bonus": 2, "bonus_name": "Iron Grip", "duration_frames": 90},
		"success_node": "WIN",
		"fail_node": "LOSE"
	}`

	var a Action
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		t.Fatalf("Failed to unmarshal action: %v", err)
	}

	if a.Type != ActionSkillCheck {
		t.Errorf("Expected type skillCheck, got %s", a.Type)
	}
	if a.Check == nil || a.Check.Difficulty != 12 || a.Check.BaseBonus != 2 {
		t.Errorf("Unexpected check spec: %+v", a.Check)
	}
	if a.SuccessNode != "WIN" || a.FailNode != "LOSE" {
		t.Errorf("Unexpected transition nodes: %s / %s", a.SuccessNode, a.FailNode)
	}
	if a.Payload != nil {
		t.Errorf("Native actions must not capture a payload, got %v", a.Payload)
	}
}

func TestActionUnmarshalExtension(t *testing.T) {
	data := `{"type": "playSound", "name": "door_creak", "volume": 80}`

	var a Action
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		t.Fatalf("Failed to unmarshal action: %v", err)
	}

	if a.Type.Native() {
		t.Errorf("playSound must not be native")
	}
	if a.Payload["name"] != "door_creak" {
		t.Errorf("Expected payload name door_creak, got %v", a.Payload["name"])
	}
	if a.Payload["volume"] != float64(80) {
		t.Errorf("Expected payload volume 80, got %v", a.Payload["volume"])
	}
}

func TestActionMarshalExtensionRoundTrip(t *testing.T) {
	a := Action{
		Type:    "playSound",
		Payload: map[string]any{"name": "door_creak"},
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Failed to marshal action: %v", err)
	}

	var back Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal action: %v", err)
	}
	if back.Type != "playSound" {
		t.Errorf("Expected type playSound, got %s", back.Type)
	}
	if back.Payload["name"] != "door_creak" {
		t.Errorf("Expected payload to survive round trip, got %v", back.Payload)
	}
}

func TestActionTypeNative(t *testing.T) {
	native := []ActionType{
		ActionOverlayMode, ActionSetCharacterStats, ActionSetPlayerInputLocked,
		ActionSetDialogueFlag, ActionSkillCheck, ActionEndDialogue,
	}
	for _, at := range native {
		if !at.Native() {
			t.Errorf("Expected %s to be native", at)
		}
	}
	// autoSave travels over the bus
	if ActionAutoSave.Native() {
		t.Error("autoSave must not be native")
	}
	if ActionType("custom").Native() {
		t.Error("unknown types must not be native")
	}
}
