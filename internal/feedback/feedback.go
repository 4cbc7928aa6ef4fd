// Package feedback maps move outcomes to sound cues and plays them.
// Playback failures are logged and never reach game state.
package feedback

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Cue string

const (
	CueNone      Cue = ""
	CueGameStart Cue = "start"
	CueMove      Cue = "move"
	CueCapture   Cue = "capture"
	CueCheck     Cue = "check"
	CueCheckmate Cue = "checkmate"
)

// Outcome is the set of conditions a settled move produced.
type Outcome struct {
	GameStart bool
	Moved     bool
	Capture   bool
	Check     bool
	Checkmate bool
}

// Classify picks one cue: checkmate > check > capture > move > gameStart.
func Classify(o Outcome) Cue {
	switch {
	case o.Checkmate:
		return CueCheckmate
	case o.Check:
		return CueCheck
	case o.Capture:
		return CueCapture
	case o.Moved:
		return CueMove
	case o.GameStart:
		return CueGameStart
	default:
		return CueNone
	}
}

// Player renders a cue. Players attached with Attach run inline in Emit;
// blocking players belong behind AttachBackground.
type Player interface {
	Play(ctx context.Context, cue Cue) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, cue Cue) error

func (f PlayerFunc) Play(ctx context.Context, cue Cue) error { return f(ctx, cue) }

const backgroundQueue = 8

type Emitter struct {
	mu      sync.RWMutex
	players []Player
	queues  []chan Cue
	closed  bool
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewEmitter(logger *zap.Logger, players ...Player) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Emitter{logger: logger}
	for _, p := range players {
		if p != nil {
			e.players = append(e.players, p)
		}
	}
	return e
}

// Attach adds a player after construction, e.g. a websocket bridge.
func (e *Emitter) Attach(p Player) {
	if e == nil || p == nil {
		return
	}
	e.mu.Lock()
	e.players = append(e.players, p)
	e.mu.Unlock()
}

// AttachBackground runs p on its own goroutine so Emit never waits for it.
// Cues arriving while its queue is full are dropped.
func (e *Emitter) AttachBackground(p Player) {
	if e == nil || p == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	q := make(chan Cue, backgroundQueue)
	e.queues = append(e.queues, q)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for cue := range q {
			if err := safePlay(context.Background(), p, cue); err != nil {
				e.logger.Warn("cue_play_failed", zap.String("cue", string(cue)), zap.Error(err))
			}
		}
	}()
}

// Emit plays cue on every player. It never fails.
func (e *Emitter) Emit(ctx context.Context, cue Cue) {
	if e == nil || cue == CueNone {
		return
	}
	e.mu.RLock()
	players := append([]Player(nil), e.players...)
	if !e.closed {
		for _, q := range e.queues {
			select {
			case q <- cue:
			default:
				e.logger.Debug("cue_dropped", zap.String("cue", string(cue)))
			}
		}
	}
	e.mu.RUnlock()
	for _, p := range players {
		if err := safePlay(ctx, p, cue); err != nil {
			e.logger.Warn("cue_play_failed", zap.String("cue", string(cue)), zap.Error(err))
		}
	}
}

// Close stops background players after their queued cues have played.
func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		for _, q := range e.queues {
			close(q)
		}
		e.queues = nil
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func safePlay(ctx context.Context, p Player, cue Cue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return p.Play(ctx, cue)
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("player panic: %v", e.value) }
