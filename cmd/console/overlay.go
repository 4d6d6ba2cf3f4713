package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/dialogue-engine/pkg/check"
)

type checkPhase int

const (
	phaseRolling checkPhase = iota
	phaseBonus
	phaseResult
	phaseDone
)

type checkTickMsg struct{}

func checkTick() tea.Cmd {
	return tea.Tick(time.Second/check.FramesPerSecond, func(time.Time) tea.Msg {
		return checkTickMsg{}
	})
}

// checkOverlay drives the animated skill check: a flicker phase of the
// spec's duration, a bonus reveal, then a result hold. The check
// resolves exactly once, at the end of the flicker; the reveal and
// hold phases only display the already-settled result.
type checkOverlay struct {
	spec    check.Spec
	resolve func() check.Result
	phase   checkPhase
	frame   int
	face    int
	res     check.Result
}

func newCheckOverlay(msg checkStartMsg) *checkOverlay {
	return &checkOverlay{
		spec:    msg.spec,
		resolve: msg.resolve,
		face:    1,
	}
}

func (c *checkOverlay) durationFrames() int {
	if c.spec.DurationFrames > 0 {
		return c.spec.DurationFrames
	}
	return check.DefaultDurationFrames
}

// tick advances one frame. It returns true when the overlay has run its
// full animation and should be dismissed.
func (c *checkOverlay) tick() bool {
	c.frame++

	switch c.phase {
	case phaseRolling:
		// Deterministic flicker; the real roll comes from the engine.
		c.face = (c.face*31+c.frame*7)%20 + 1
		if c.frame >= c.durationFrames() {
			// The outcome is settled here; the remaining phases
			// only present it.
			c.res = c.resolve()
			c.face = c.res.Roll
			c.phase = phaseBonus
			c.frame = 0
		}

	case phaseBonus:
		if c.frame >= check.BonusRevealFrames {
			c.phase = phaseResult
			c.frame = 0
		}

	case phaseResult:
		if c.frame >= check.ResultHoldFrames {
			c.phase = phaseDone
			return true
		}
	}
	return false
}

var (
	checkBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("220")).
			Padding(1, 3).
			Align(lipgloss.Center)

	checkTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	dieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	bonusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

var titleCaser = cases.Title(language.English)

func abilityLabel(a check.Ability) string {
	var word string
	switch check.NormalizeAbility(string(a)) {
	case check.AbilityStrength:
		word = "strength"
	case check.AbilityAgility:
		word = "agility"
	case check.AbilityLuck:
		word = "luck"
	default:
		word = "perception"
	}
	return titleCaser.String(word)
}

func (c *checkOverlay) render(width, height int) string {
	var content strings.Builder

	content.WriteString(checkTitleStyle.Render(abilityLabel(c.spec.Type)+" Check") + "\n")
	content.WriteString(fmt.Sprintf("Difficulty %d\n\n", c.spec.Difficulty))
	content.WriteString(dieStyle.Render(fmt.Sprintf("【 %2d 】", c.face)) + "\n")

	if c.phase >= phaseBonus {
		bonusName := c.spec.BonusName
		if bonusName == "" {
			bonusName = "Bonus"
		}
		content.WriteString(bonusStyle.Render(fmt.Sprintf("%+d %s", c.spec.BaseBonus, bonusName)) + "\n")
	} else {
		content.WriteString("\n")
	}

	if c.phase >= phaseResult {
		switch {
		case c.res.Crit == check.CritSuccess:
			content.WriteString(successStyle.Render("CRITICAL SUCCESS"))
		case c.res.Crit == check.CritFail:
			content.WriteString(failureStyle.Render("CRITICAL FAILURE"))
		case c.res.Success:
			content.WriteString(successStyle.Render(fmt.Sprintf("SUCCESS (%d)", c.res.Total)))
		default:
			content.WriteString(failureStyle.Render(fmt.Sprintf("FAILURE (%d)", c.res.Total)))
		}
	} else {
		content.WriteString("Rolling...")
	}

	box := checkBoxStyle.Width(34).Render(content.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}
