package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/check"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Presenter is the narrow rendering contract the runtime drives. The
// excluded presentation layer implements it; when none is bound the
// runtime degrades to an internal line queue.
type Presenter interface {
	// ReplaceLines clears prior content and displays the given lines,
	// truncating to the last N visible lines.
	ReplaceLines(lines []string)

	// Terminate clears or closes a pending presentation.
	Terminate()
}

// OverlayController is notified when a mainAreaOverlayMode action
// changes the persisted overlay mode.
type OverlayController interface {
	SetMode(mode string)
}

// CheckEngine starts an asynchronous skill check. *check.Engine
// implements it.
type CheckEngine interface {
	Start(spec check.Spec, done func(check.Result))
}

// StateStore is the persistence port for everything the runtime
// mutates. internal/storage provides the Redis-backed implementation;
// pkg/storage provides an in-memory one for tests.
type StateStore interface {
	LoadSession(ctx context.Context) (state.Session, error)
	SaveSession(ctx context.Context, s state.Session) error
	LoadFlags(ctx context.Context) (state.FlagTable, error)
	SaveFlags(ctx context.Context, t state.FlagTable) error
	LoadStats(ctx context.Context) (map[string]character.Stats, error)
	SaveStats(ctx context.Context, t map[string]character.Stats) error
	LoadWorld(ctx context.Context) (state.World, error)
	SaveWorld(ctx context.Context, w state.World) error
}

// Handler receives bus-dispatched actions.
type Handler func(Action)

// Runtime walks one dialogue graph at a time. It holds the active
// session, per-dialogue flags and world state in memory, writing each
// mutation through the state store. A nil store makes every operation a
// silent no-op, matching the "persistence substrate unavailable" rule.
type Runtime struct {
	mu sync.Mutex

	scripts *Registry
	stats   *character.Store
	checks  CheckEngine
	store   StateStore
	logger  *slog.Logger

	session state.Session
	flags   state.FlagTable
	world   state.World

	presenter Presenter
	overlay   OverlayController
	queue     []string

	subs    map[string][]Handler
	onCheck []func(check.Result)
}

// NewRuntime wires a runtime. checks may be nil (skillCheck actions are
// then dropped with a warning) and store may be nil (all operations
// no-op).
func NewRuntime(scripts *Registry, stats *character.Store, checks CheckEngine, store StateStore, logger *slog.Logger) *Runtime {
	return &Runtime{
		scripts: scripts,
		stats:   stats,
		checks:  checks,
		store:   store,
		logger:  logger,
		flags:   make(state.FlagTable),
		subs:    make(map[string][]Handler),
	}
}

// BindPresenter attaches the rendering surface. Passing nil detaches it,
// reverting to the internal line queue.
func (rt *Runtime) BindPresenter(p Presenter) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.presenter = p
}

// BindOverlay attaches the overlay controller notified on mode changes.
func (rt *Runtime) BindOverlay(o OverlayController) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.overlay = o
}

// On subscribes a handler for an action type dispatched over the bus.
// Registration happens once at startup; there is no unsubscribe.
func (rt *Runtime) On(actionType string, h Handler) {
	if actionType == "" || h == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.subs[actionType] = append(rt.subs[actionType], h)
}

// OnCheckResult registers an observer for resolved skill checks. The
// observer fires whether or not the owning session survived.
func (rt *Runtime) OnCheckResult(fn func(check.Result)) {
	if fn == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.onCheck = append(rt.onCheck, fn)
}

// Hydrate loads persisted session, flags, stats and world state.
// Call once after constructing the runtime for an existing save.
func (rt *Runtime) Hydrate(ctx context.Context) error {
	if rt.store == nil {
		return nil
	}
	session, err := rt.store.LoadSession(ctx)
	if err != nil {
		return err
	}
	flags, err := rt.store.LoadFlags(ctx)
	if err != nil {
		return err
	}
	stats, err := rt.store.LoadStats(ctx)
	if err != nil {
		return err
	}
	world, err := rt.store.LoadWorld(ctx)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.session = session
	if flags == nil {
		flags = make(state.FlagTable)
	}
	rt.flags = flags
	if rt.stats != nil && stats != nil {
		rt.stats.Restore(stats)
	}
	rt.world = world
	return nil
}

// Start activates a session at the given script and node, wiping any
// flags left by a prior run of the same dialogue, then enters the node.
func (rt *Runtime) Start(ctx context.Context, dialogueID, nodeID string) {
	if rt.store == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.session = state.Session{Active: true, DialogueID: dialogueID, NodeID: nodeID}
	delete(rt.flags, dialogueID)
	rt.saveSessionLocked(ctx)
	rt.saveFlagsLocked(ctx)
	rt.enterNodeLocked(ctx)
}

// Goto moves the active session to nodeID and enters it. No-op while
// idle.
func (rt *Runtime) Goto(ctx context.Context, nodeID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.gotoLocked(ctx, nodeID)
}

// End deactivates the session and tears down the presentation.
func (rt *Runtime) End(ctx context.Context) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.endLocked(ctx)
}

// Current resolves the active (script, node) pair. ok is false when the
// session is idle, the script is unregistered or the node id does not
// resolve; callers treat all three as "no dialogue in progress".
func (rt *Runtime) Current() (*Script, Node, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.currentLocked()
}

// Session returns a copy of the session state.
func (rt *Runtime) Session() state.Session {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.session
}

// World returns a copy of the persisted world state.
func (rt *Runtime) World() state.World {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.world
}

// InputLocked reports the movement-permission gate toggled by
// setPlayerInputLocked actions.
func (rt *Runtime) InputLocked() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.world.InputLocked
}

// QueuedLines returns the fallback line queue filled when no presenter
// is bound.
func (rt *Runtime) QueuedLines() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, len(rt.queue))
	copy(out, rt.queue)
	return out
}

// SaveState assembles the full save document from live state.
func (rt *Runtime) SaveState() state.SaveState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := state.SaveState{
		Session: rt.session,
		Flags:   make(state.FlagTable, len(rt.flags)),
		World:   rt.world,
	}
	for id, flags := range rt.flags {
		m := make(map[string]bool, len(flags))
		for k, v := range flags {
			m[k] = v
		}
		st.Flags[id] = m
	}
	if rt.stats != nil {
		st.Stats = rt.stats.Snapshot()
	}
	return st
}

// HandleLinkClick consumes a click on link text in the current node. A
// __END__ target ends the dialogue; any other target transitions to it.
// Returns false when there is no active node or no matching link, so
// the call site can fall through to default input handling.
func (rt *Runtime) HandleLinkClick(ctx context.Context, linkText string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, node, ok := rt.currentLocked()
	if !ok || len(node.Links) == 0 {
		return false
	}
	target, ok := node.Links[linkText]
	if !ok || target == "" {
		return false
	}
	if target == EndTarget {
		rt.endLocked(ctx)
		return true
	}
	rt.gotoLocked(ctx, target)
	return true
}

// HandleMessageClick consumes a non-link click when the current node
// advances on click. A __END__ target ends the dialogue.
func (rt *Runtime) HandleMessageClick(ctx context.Context) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, node, ok := rt.currentLocked()
	if !ok || node.NextOnClick == "" {
		return false
	}
	if node.NextOnClick == EndTarget {
		rt.endLocked(ctx)
		return true
	}
	rt.gotoLocked(ctx, node.NextOnClick)
	return true
}

// SetFlag writes a per-dialogue flag.
func (rt *Runtime) SetFlag(ctx context.Context, dialogueID, flag string, value bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.flags.Set(dialogueID, flag, value)
	rt.saveFlagsLocked(ctx)
}

// Flag reads a per-dialogue flag, defaulting to false.
func (rt *Runtime) Flag(dialogueID, flag string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.flags.Get(dialogueID, flag)
}

// RecordAutosave stamps the world state with the tag and time of the
// snapshot the save system just wrote.
func (rt *Runtime) RecordAutosave(ctx context.Context, tag string, at time.Time) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.world.LastAutosaveTag = tag
	rt.world.LastAutosaveAt = at
	rt.saveWorldLocked(ctx)
}

// HasAllFlags reports whether every named flag is set for the dialogue.
// Vacuously true for an empty list.
func (rt *Runtime) HasAllFlags(dialogueID string, flags []string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.flags.HasAll(dialogueID, flags)
}

func (rt *Runtime) currentLocked() (*Script, Node, bool) {
	if !rt.session.Active || rt.scripts == nil {
		return nil, Node{}, false
	}
	script, ok := rt.scripts.Get(rt.session.DialogueID)
	if !ok {
		return nil, Node{}, false
	}
	node, ok := script.NodeByID(rt.session.NodeID)
	if !ok {
		return nil, Node{}, false
	}
	return script, node, true
}

func (rt *Runtime) gotoLocked(ctx context.Context, nodeID string) {
	if !rt.session.Active {
		return
	}
	rt.session.NodeID = nodeID
	rt.saveSessionLocked(ctx)
	rt.enterNodeLocked(ctx)
}

func (rt *Runtime) endLocked(ctx context.Context) {
	rt.session = state.Session{}
	rt.saveSessionLocked(ctx)
	if rt.presenter != nil {
		rt.presenter.Terminate()
	} else {
		rt.queue = nil
	}
}

// enterNodeLocked runs the node-entry protocol: flag-gated redirect
// first, then actions in order, then render. The redirect short-circuits
// so a waiting-room node never flashes its own content.
func (rt *Runtime) enterNodeLocked(ctx context.Context) {
	_, node, ok := rt.currentLocked()
	if !ok {
		return
	}

	if g := node.GotoIfAllFlags; g != nil && g.NodeID != rt.session.NodeID &&
		rt.flags.HasAll(rt.session.DialogueID, g.Flags) {
		rt.gotoLocked(ctx, g.NodeID)
		return
	}

	entered := rt.session
	rt.applyActionsLocked(ctx, node.Actions)

	// An action may have ended the session or re-entered another node;
	// in either case that transition already owns the display.
	if rt.session != entered {
		return
	}
	rt.renderLocked(node.Lines)
}

func (rt *Runtime) applyActionsLocked(ctx context.Context, actions []Action) {
	for _, a := range actions {
		rt.applyActionLocked(ctx, a)
	}
}

// applyActionLocked executes one action, isolating faults so a broken
// handler cannot abort the rest of the node's action list.
func (rt *Runtime) applyActionLocked(ctx context.Context, a Action) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("dialogue action panicked",
				"type", a.Type, "dialogue_id", rt.session.DialogueID,
				"node_id", rt.session.NodeID, "panic", r)
		}
	}()

	switch a.Type {
	case ActionOverlayMode:
		mode := a.Mode
		if mode == "" {
			mode = "hidden"
		}
		rt.world.OverlayMode = mode
		rt.saveWorldLocked(ctx)
		if rt.overlay != nil {
			rt.overlay.SetMode(mode)
		}

	case ActionSetCharacterStats:
		if rt.stats == nil {
			return
		}
		rt.stats.Set(a.UID, a.Stats)
		rt.saveStatsLocked(ctx)

	case ActionSetPlayerInputLocked:
		rt.world.InputLocked = a.Locked
		rt.saveWorldLocked(ctx)

	case ActionSetDialogueFlag:
		rt.flags.Set(rt.session.DialogueID, a.Flag, a.Value)
		rt.saveFlagsLocked(ctx)

	case ActionSkillCheck:
		rt.startCheckLocked(a)

	case ActionEndDialogue:
		rt.endLocked(ctx)

	default:
		rt.emitLocked(a)
	}
}

// startCheckLocked launches the asynchronous skill check. The node
// keeps rendering its own "in progress" lines; the success or fail
// transition runs strictly after resolution, and is suppressed if the
// owning session is gone by then.
func (rt *Runtime) startCheckLocked(a Action) {
	if rt.checks == nil || a.Check == nil {
		rt.logger.Warn("skillCheck action without engine or spec",
			"dialogue_id", rt.session.DialogueID, "node_id", rt.session.NodeID)
		return
	}
	dialogueID := rt.session.DialogueID
	spec := *a.Check
	successNode, failNode := a.SuccessNode, a.FailNode
	rt.checks.Start(spec, func(res check.Result) {
		// Resolution may fire synchronously inside this node entry;
		// a fresh goroutine serializes the transition behind it.
		go rt.resumeCheck(dialogueID, successNode, failNode, res)
	})
}

func (rt *Runtime) resumeCheck(dialogueID, successNode, failNode string, res check.Result) {
	ctx := context.Background()

	rt.mu.Lock()
	observers := make([]func(check.Result), len(rt.onCheck))
	copy(observers, rt.onCheck)

	if !rt.session.Active || rt.session.DialogueID != dialogueID {
		rt.logger.Debug("skill check resolved for inactive session",
			"dialogue_id", dialogueID, "success", res.Success)
	} else {
		target := failNode
		if res.Success {
			target = successNode
		}
		rt.gotoLocked(ctx, target)
	}
	rt.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}
}

// emitLocked fans an action out to its subscribers. The lock is
// released around handlers so a subscriber may call back into the
// runtime; each handler is fault-isolated.
func (rt *Runtime) emitLocked(a Action) {
	handlers := rt.subs[string(a.Type)]
	if len(handlers) == 0 {
		rt.logger.Debug("dialogue action has no subscribers", "type", a.Type)
		return
	}
	list := make([]Handler, len(handlers))
	copy(list, handlers)

	rt.mu.Unlock()
	defer rt.mu.Lock()
	for _, h := range list {
		rt.runHandler(a, h)
	}
}

func (rt *Runtime) runHandler(a Action, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("dialogue action subscriber panicked",
				"type", a.Type, "panic", r)
		}
	}()
	h(a)
}

func (rt *Runtime) renderLocked(lines []string) {
	if rt.presenter != nil {
		rt.presenter.ReplaceLines(lines)
		return
	}
	rt.queue = make([]string, len(lines))
	copy(rt.queue, lines)
}

func (rt *Runtime) saveSessionLocked(ctx context.Context) {
	if rt.store == nil {
		return
	}
	if err := rt.store.SaveSession(ctx, rt.session); err != nil {
		rt.logger.Error("failed to save dialogue session", "error", err)
	}
}

func (rt *Runtime) saveFlagsLocked(ctx context.Context) {
	if rt.store == nil {
		return
	}
	if err := rt.store.SaveFlags(ctx, rt.flags); err != nil {
		rt.logger.Error("failed to save dialogue flags", "error", err)
	}
}

func (rt *Runtime) saveStatsLocked(ctx context.Context) {
	if rt.store == nil || rt.stats == nil {
		return
	}
	if err := rt.store.SaveStats(ctx, rt.stats.Snapshot()); err != nil {
		rt.logger.Error("failed to save character stats", "error", err)
	}
}

func (rt *Runtime) saveWorldLocked(ctx context.Context) {
	if rt.store == nil {
		return
	}
	if err := rt.store.SaveWorld(ctx, rt.world); err != nil {
		rt.logger.Error("failed to save world state", "error", err)
	}
}
