package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/dialogue-engine/pkg/check"
)

type linesMsg struct {
	lines []string
}

type terminatedMsg struct{}

type overlayModeMsg struct {
	mode string
}

type checkStartMsg struct {
	spec    check.Spec
	resolve func() check.Result
}

// uiBridge forwards runtime callbacks into the BubbleTea event loop.
// Callbacks may fire before the program is running (node entry during
// Update is synchronous), so messages are buffered until Attach.
type uiBridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

func newUIBridge() *uiBridge {
	return &uiBridge{}
}

// Attach hands the bridge the program's Send function and flushes
// anything buffered before the program started.
func (b *uiBridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, msg := range pending {
		send(msg)
	}
}

func (b *uiBridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = append(b.pending, msg)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	send(msg)
}

// ReplaceLines implements dialogue.Presenter.
func (b *uiBridge) ReplaceLines(lines []string) {
	out := make([]string, len(lines))
	copy(out, lines)
	b.post(linesMsg{lines: out})
}

// Terminate implements dialogue.Presenter.
func (b *uiBridge) Terminate() {
	b.post(terminatedMsg{})
}

// SetMode implements dialogue.OverlayController.
func (b *uiBridge) SetMode(mode string) {
	b.post(overlayModeMsg{mode: mode})
}

// Present implements check.Presenter. The animation itself runs on the
// UI's frame ticks; this only hands the resolve callback over.
func (b *uiBridge) Present(spec check.Spec, resolve func() check.Result) error {
	b.post(checkStartMsg{spec: spec, resolve: resolve})
	return nil
}
