package check

// Ability is the stat a skill check rolls against.
type Ability string

const (
	AbilityStrength   Ability = "str"
	AbilityAgility    Ability = "agi"
	AbilityPerception Ability = "per"
	AbilityLuck       Ability = "luk"
)

// NormalizeAbility maps free-form authored values onto the closed ability
// set, defaulting to perception.
func NormalizeAbility(s string) Ability {
	switch Ability(s) {
	case AbilityStrength, AbilityAgility, AbilityLuck:
		return Ability(s)
	default:
		return AbilityPerception
	}
}

// Crit marks a forced outcome on an extreme die roll.
type Crit string

const (
	CritNone    Crit = ""
	CritFail    Crit = "crit_fail"
	CritSuccess Crit = "crit_success"
)

// Spec describes one skill check. DurationFrames controls the length of
// the animated roll-flicker phase; zero means DefaultDurationFrames.
type Spec struct {
	Type           Ability `json:"type"`
	Difficulty     int     `json:"difficulty"`
	BaseBonus      int     `json:"base_bonus"`
	BonusName      string  `json:"bonus_name,omitempty"`
	DurationFrames int     `json:"duration_frames,omitempty"`
}

// Result is the outcome of a resolved skill check.
type Result struct {
	Type       Ability `json:"type"`
	Roll       int     `json:"roll"`
	BaseBonus  int     `json:"base_bonus"`
	Difficulty int     `json:"difficulty"`
	Total      int     `json:"total"`
	Success    bool    `json:"success"`
	Crit       Crit    `json:"crit"`
}

// Evaluate applies the house rule to a d20 roll: 1 always fails, 20
// always succeeds, anything else compares roll+bonus against difficulty.
func Evaluate(spec Spec, roll int) Result {
	res := Result{
		Type:       NormalizeAbility(string(spec.Type)),
		Roll:       roll,
		BaseBonus:  spec.BaseBonus,
		Difficulty: spec.Difficulty,
		Total:      roll + spec.BaseBonus,
	}
	switch roll {
	case 1:
		res.Crit = CritFail
	case 20:
		res.Crit = CritSuccess
		res.Success = true
	default:
		res.Success = res.Total >= spec.Difficulty
	}
	return res
}
