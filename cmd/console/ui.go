package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// The message window shows at most this many lines at once; longer
// nodes keep only the tail, matching the original window behavior.
const maxWindowLines = 4

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")). // teal
			Underline(true)

	emphasisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ConsoleUI is the BubbleTea model that plays dialogue scripts against
// an in-process runtime.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	rt       *dialogue.Runtime
	scripts  *dialogue.Registry
	registry *character.Registry
	stats    *character.Store

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	// Script selection state
	showScriptModal bool
	scriptIDs       []string
	selectedScript  int

	// Entry node selection state
	showNodeModal bool
	pickedScript  string
	nodeIDs       []string
	selectedNode  int

	// Quit confirmation state
	showQuitModal bool

	transcript    []string
	window        []string
	windowSpeaker string
	links         []string
	check         *checkOverlay
	copied        bool
	err           error
}

func NewConsoleUI(rt *dialogue.Runtime, scripts *dialogue.Registry, registry *character.Registry, stats *character.Store) ConsoleUI {
	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	m := ConsoleUI{
		rt:        rt,
		scripts:   scripts,
		registry:  registry,
		stats:     stats,
		viewport:  vp,
		scriptIDs: scripts.IDs(),
	}

	// A hydrated session resumes where it left off; otherwise pick a
	// script first.
	if _, node, ok := rt.Current(); ok {
		m.window = tailLines(node.Lines)
		m.links = dialogue.LinkTexts(node.Lines)
		m.windowSpeaker = m.speakerName()
	} else {
		m.showScriptModal = true
	}
	return m
}

func tailLines(lines []string) []string {
	if len(lines) > maxWindowLines {
		lines = lines[len(lines)-maxWindowLines:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func (m *ConsoleUI) speakerName() string {
	script, node, ok := m.rt.Current()
	if !ok {
		return ""
	}
	uid := script.SpeakerFor(node)
	if p, ok := m.registry.Get(uid); ok && p.PublicName != "" {
		return p.PublicName
	}
	return uid
}

// flushWindow moves the current message window into the scrollback
// transcript, prefixing the first line with its speaker.
func (m *ConsoleUI) flushWindow() {
	if len(m.window) == 0 {
		return
	}
	for i, line := range m.window {
		if i == 0 && m.windowSpeaker != "" {
			m.transcript = append(m.transcript, m.windowSpeaker+": "+line)
			continue
		}
		m.transcript = append(m.transcript, line)
	}
	m.transcript = append(m.transcript, "")
	m.window = nil
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

// Runtime calls run as commands so presenter callbacks can re-enter the
// event loop without blocking it.

func (m ConsoleUI) startDialogue(scriptID, nodeID string) tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		rt.Start(context.Background(), scriptID, nodeID)
		return nil
	}
}

func (m ConsoleUI) clickLink(text string) tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		rt.HandleLinkClick(context.Background(), text)
		return nil
	}
}

func (m ConsoleUI) advance() tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		rt.HandleMessageClick(context.Background())
		return nil
	}
}

func (m ConsoleUI) endDialogue() tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		rt.End(context.Background())
		return nil
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Bridge messages are handled regardless of which modal is up; the
	// async skill check path delivers them at any time.
	switch msg := msg.(type) {
	case linesMsg:
		m.flushWindow()
		m.window = tailLines(msg.lines)
		m.links = dialogue.LinkTexts(msg.lines)
		m.windowSpeaker = m.speakerName()
		m.writeContent()
		return m, nil

	case terminatedMsg:
		m.flushWindow()
		m.links = nil
		m.transcript = append(m.transcript, mutedStyle.Render("· dialogue ended ·"), "")
		m.showScriptModal = true
		m.writeContent()
		return m, nil

	case overlayModeMsg:
		// Overlay mode only affects the meta panel here; a graphical
		// host would drive its screen-fade layer with it.
		m.writeContent()
		return m, nil

	case checkStartMsg:
		m.check = newCheckOverlay(msg)
		return m, checkTick()

	case checkTickMsg:
		if m.check == nil {
			return m, nil
		}
		if m.check.tick() {
			res := m.check.res
			outcome := "failure"
			if res.Success {
				outcome = "success"
			}
			m.transcript = append(m.transcript,
				mutedStyle.Render(fmt.Sprintf("· %s check: rolled %d, %s ·", abilityLabel(res.Type), res.Roll, outcome)), "")
			m.check = nil
			m.writeContent()
			return m, nil
		}
		return m, checkTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatWidth := int(float64(m.width)*0.72) - 4
		m.viewport.Width = chatWidth - 2
		m.viewport.Height = m.height - 6
		m.ready = true
		m.writeContent()
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showScriptModal {
		return m.updateScriptModal(msg)
	}
	if m.showNodeModal {
		return m.updateNodeModal(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Input is swallowed while the check overlay is up.
		if m.check != nil {
			if msg.Type == tea.KeyCtrlC {
				m.showQuitModal = true
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter, tea.KeySpace:
			return m, m.advance()
		}

		switch msg.String() {
		case "q":
			m.showQuitModal = true
			return m, nil
		case "e":
			return m, m.endDialogue()
		case "c":
			full := append(append([]string{}, m.transcript...), m.window...)
			m.copied = clipboard.WriteAll(strings.Join(full, "\n")) == nil
			m.writeContent()
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(msg.String()[0] - '1')
			if idx < len(m.links) {
				return m, m.clickLink(m.links[idx])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateScriptModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScript > 0 {
				m.selectedScript--
			}
		case tea.KeyDown:
			if m.selectedScript < len(m.scriptIDs)-1 {
				m.selectedScript++
			}
		case tea.KeyEnter:
			if len(m.scriptIDs) == 0 {
				return m, nil
			}
			m.pickedScript = m.scriptIDs[m.selectedScript]
			if s, ok := m.scripts.Get(m.pickedScript); ok {
				m.nodeIDs = m.nodeIDs[:0]
				for id := range s.Nodes {
					m.nodeIDs = append(m.nodeIDs, id)
				}
				sort.Strings(m.nodeIDs)
			}
			m.selectedNode = 0
			m.showScriptModal = false
			m.showNodeModal = true
		}
	}
	return m, nil
}

func (m ConsoleUI) updateNodeModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			m.showNodeModal = false
			m.showScriptModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedNode > 0 {
				m.selectedNode--
			}
		case tea.KeyDown:
			if m.selectedNode < len(m.nodeIDs)-1 {
				m.selectedNode++
			}
		case tea.KeyEnter:
			if len(m.nodeIDs) == 0 {
				return m, nil
			}
			m.showNodeModal = false
			return m, m.startDialogue(m.pickedScript, m.nodeIDs[m.selectedNode])
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
			}
		}
	}
	return m, nil
}

// renderMarkupLine styles link and emphasis spans after wrapping the
// raw line to width.
func renderMarkupLine(line string, width int) string {
	wrapped := wordwrap.String(line, width)
	var out []string
	for _, l := range strings.Split(wrapped, "\n") {
		var b strings.Builder
		for _, span := range dialogue.ScanLine(l) {
			switch span.Kind {
			case dialogue.SpanLink:
				b.WriteString(linkStyle.Render(span.Text))
			case dialogue.SpanEmphasis:
				b.WriteString(emphasisStyle.Render(span.Text))
			default:
				b.WriteString(span.Text)
			}
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}

func (m *ConsoleUI) writeContent() {
	if !m.ready {
		return
	}
	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("DIALOGUE ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, line := range m.transcript {
		content.WriteString(renderMarkupLine(line, width) + "\n")
	}

	for i, line := range m.window {
		if i == 0 && m.windowSpeaker != "" {
			content.WriteString(speakerStyle.Render(m.windowSpeaker) + "\n")
		}
		content.WriteString(renderMarkupLine(line, width) + "\n")
	}

	if len(m.links) > 0 {
		content.WriteString("\n")
		for i, text := range m.links {
			content.WriteString(mutedStyle.Render(fmt.Sprintf("[%d] ", i+1)) + linkStyle.Render(text) + "\n")
		}
	}

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	sess := m.rt.Session()
	world := m.rt.World()

	if sess.Active {
		content.WriteString("Dialogue:\n" + sess.DialogueID + "\n\n")
		content.WriteString("Node:\n" + sess.NodeID + "\n\n")
		content.WriteString("Speaker:\n" + m.speakerName() + "\n\n")
	} else {
		content.WriteString("No active dialogue\n\n")
	}

	content.WriteString("Overlay: " + orDash(world.OverlayMode) + "\n")
	content.WriteString(fmt.Sprintf("Input locked: %v\n\n", world.InputLocked))

	st := m.stats.Get(character.ProtagonistUID)
	content.WriteString(speakerStyle.Render("You") + "\n")
	content.WriteString(fmt.Sprintf("HP %s/%s  MP %s/%s\n\n",
		statV(st.HP), statV(st.MaxHP), statV(st.MP), statV(st.MaxMP)))

	if world.LastAutosaveTag != "" {
		content.WriteString("Autosave: " + world.LastAutosaveTag + "\n\n")
	}

	content.WriteString(mutedStyle.Render("Keys:") + "\n")
	content.WriteString(mutedStyle.Render("1-9 pick link") + "\n")
	content.WriteString(mutedStyle.Render("Enter advance") + "\n")
	content.WriteString(mutedStyle.Render("c copy transcript") + "\n")
	content.WriteString(mutedStyle.Render("e end dialogue") + "\n")
	content.WriteString(mutedStyle.Render("q quit") + "\n")
	if m.copied {
		content.WriteString("\n" + mutedStyle.Render("Transcript copied") + "\n")
	}

	return content.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func statV(v int32) string {
	if v < 0 {
		return "?"
	}
	return fmt.Sprintf("%d", v)
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString(mutedStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(40).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderPickerModal(title string, items []string, selected int, hint string) string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")

	for i, item := range items {
		if i == selected {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + item))
		} else {
			content.WriteString(modalItemStyle.Render("  " + item))
		}
		content.WriteString("\n")
	}
	if len(items) == 0 {
		content.WriteString(errorStyle.Render("nothing available"))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(mutedStyle.Render(hint))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.check != nil {
		return m.check.render(m.width, m.height)
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showScriptModal {
		labels := make([]string, len(m.scriptIDs))
		for i, id := range m.scriptIDs {
			label := id
			if s, ok := m.scripts.Get(id); ok && s.Title != "" {
				label = fmt.Sprintf("%s (%s)", s.Title, id)
			}
			labels[i] = label
		}
		return m.renderPickerModal("Select a Dialogue", labels, m.selectedScript,
			"↑/↓ navigate, Enter select, Ctrl+C quit")
	}
	if m.showNodeModal {
		return m.renderPickerModal("Entry Node", m.nodeIDs, m.selectedNode,
			"↑/↓ navigate, Enter start, Esc back")
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 2).Render(m.viewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.writeMetadata())

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
