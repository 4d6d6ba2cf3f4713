package check

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Animation phase lengths, in frames at the host's 60fps tick.
const (
	FramesPerSecond       = 60
	DefaultDurationFrames = 180
	BonusRevealFrames     = 24
	ResultHoldFrames      = 60
)

const (
	minFallbackDelay = 1200 * time.Millisecond
	fallbackGrace    = 600 * time.Millisecond
)

// Presenter runs the animated check flow: a roll-flicker phase of the
// spec's duration, a bonus reveal, then a result hold. It must call
// resolve exactly once, at the end of the flicker phase, and display the
// returned result; the reveal and hold phases are purely visual and run
// after the outcome is already settled. A Presenter that cannot mount
// returns an error from Present without calling resolve.
type Presenter interface {
	Present(spec Spec, resolve func() Result) error
}

// Engine produces exactly one Result per started check, through the
// animated presenter when one is available and through a wall-clock
// fallback timer otherwise.
type Engine struct {
	presenter Presenter
	logger    *slog.Logger

	// randInt returns a uniform value in [min, max]. Must be safe for
	// concurrent use: the fallback timer rolls on its own goroutine.
	randInt func(min, max int) int
}

// NewEngine creates an engine. presenter may be nil for headless use.
func NewEngine(presenter Presenter, logger *slog.Logger) *Engine {
	return &Engine{
		presenter: presenter,
		logger:    logger,
		randInt: func(min, max int) int {
			return rand.IntN(max-min+1) + min
		},
	}
}

// Roll resolves a check synchronously with a fresh d20 roll.
func (e *Engine) Roll(spec Spec) Result {
	return Evaluate(spec, e.randInt(1, 20))
}

// FallbackTimeout is how long a started check may stay unresolved before
// the silent fallback path claims it: the full animation length plus
// slack, floored so even zero-frame specs get a humane window.
func FallbackTimeout(durationFrames int) time.Duration {
	if durationFrames <= 0 {
		durationFrames = DefaultDurationFrames
	}
	d := time.Duration(durationFrames) * time.Second / FramesPerSecond
	d += fallbackGrace
	if d < minFallbackDelay {
		d = minFallbackDelay
	}
	return d
}

// resultCell is a single-assignment slot; the first resolver rolls and
// wins, every later attempt gets the stored result back unchanged.
type resultCell struct {
	mu   sync.Mutex
	set  bool
	res  Result
	done func(Result)
}

func (c *resultCell) resolve(roll func() Result) (Result, bool) {
	c.mu.Lock()
	if c.set {
		res := c.res
		c.mu.Unlock()
		return res, false
	}
	res := roll()
	c.res = res
	c.set = true
	done := c.done
	c.mu.Unlock()
	if done != nil {
		done(res)
	}
	return res, true
}

// Start begins a check and returns immediately. done is invoked exactly
// once, either when the presenter resolves at the end of its flicker
// phase or when the fallback timer fires, whichever comes first. The
// presenter's resolve callback always returns the winning result, so a
// stalled animation that loses to the timer still displays the roll the
// check actually used.
func (e *Engine) Start(spec Spec, done func(Result)) {
	cell := &resultCell{done: done}
	roll := func() Result { return e.Roll(spec) }

	timer := time.AfterFunc(FallbackTimeout(spec.DurationFrames), func() {
		if _, won := cell.resolve(roll); won {
			e.logger.Debug("skill check resolved by fallback timer",
				"type", spec.Type, "difficulty", spec.Difficulty)
		}
	})

	resolve := func() Result {
		res, won := cell.resolve(roll)
		if won {
			timer.Stop()
		}
		return res
	}

	if e.presenter == nil {
		// No presentation surface at all: resolve now instead of
		// making a headless host wait out the timer.
		resolve()
		return
	}

	if err := e.presenter.Present(spec, resolve); err != nil {
		e.logger.Warn("skill check presenter failed to start, resolving synchronously",
			"type", spec.Type, "error", err)
		resolve()
	}
}
