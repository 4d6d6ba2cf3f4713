package dialogue

import (
	"encoding/json"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/check"
)

// ActionType tags a node-entry action. The runtime handles the types
// below natively; any other tag is forwarded to the subscriber bus.
type ActionType string

const (
	ActionOverlayMode          ActionType = "mainAreaOverlayMode"
	ActionSetCharacterStats    ActionType = "setCharacterStats"
	ActionSetPlayerInputLocked ActionType = "setPlayerInputLocked"
	ActionSetDialogueFlag      ActionType = "setDialogueFlag"
	ActionSkillCheck           ActionType = "skillCheck"
	ActionEndDialogue          ActionType = "endDialogue"
	ActionAutoSave             ActionType = "autoSave"
)

// Native reports whether the runtime executes this type itself rather
// than forwarding it to subscribers. autoSave is a known variant but
// travels over the bus so the save system can own slot semantics.
func (t ActionType) Native() bool {
	switch t {
	case ActionOverlayMode, ActionSetCharacterStats, ActionSetPlayerInputLocked,
		ActionSetDialogueFlag, ActionSkillCheck, ActionEndDialogue:
		return true
	default:
		return false
	}
}

// Action is one side effect executed on node entry. Exactly the fields
// for its Type are meaningful; for extension types the raw object is
// preserved in Payload for subscribers.
type Action struct {
	Type ActionType `json:"type"`

	// mainAreaOverlayMode
	Mode string `json:"mode,omitempty"`

	// setCharacterStats
	UID   string               `json:"uid,omitempty"`
	Stats character.StatsPatch `json:"stats,omitempty"`

	// setPlayerInputLocked
	Locked bool `json:"locked,omitempty"`

	// setDialogueFlag
	Flag  string `json:"flag,omitempty"`
	Value bool   `json:"value,omitempty"`

	// skillCheck
	Check       *check.Spec `json:"check,omitempty"`
	SuccessNode string      `json:"success_node,omitempty"`
	FailNode    string      `json:"fail_node,omitempty"`

	// autoSave
	Tag string `json:"tag,omitempty"`

	// Payload is the raw object for extension types.
	Payload map[string]any `json:"-"`
}

type actionAlias Action

func (a *Action) UnmarshalJSON(data []byte) error {
	var alias actionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*a = Action(alias)
	if !a.Type.Native() && a.Type != ActionAutoSave {
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		a.Payload = payload
	}
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.Payload) > 0 {
		payload := make(map[string]any, len(a.Payload)+1)
		for k, v := range a.Payload {
			payload[k] = v
		}
		payload["type"] = string(a.Type)
		return json.Marshal(payload)
	}
	return json.Marshal(actionAlias(a))
}
