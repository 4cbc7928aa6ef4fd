// Package turn owns the authoritative game state: board, side to move, the
// human's side, terminal status and the in-progress selection. It arbitrates
// between human moves and the automated reply over a rules.Collaborator.
package turn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/feedback"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/selection"
)

const defaultRequestTimeout = 10 * time.Second

// Recorder persists snapshots, e.g. to Redis for resuming a session.
type Recorder interface {
	Save(ctx context.Context, snap Snapshot) error
}

type Option func(*Engine)

func WithEmitter(em *feedback.Emitter) Option { return func(e *Engine) { e.emitter = em } }

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithSessionID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.sessionID = id
		}
	}
}

type Engine struct {
	collab    rules.Collaborator
	emitter   *feedback.Emitter
	recorder  Recorder
	logger    *zap.Logger
	timeout   time.Duration
	sessionID string

	mu            sync.Mutex
	gen           uint64
	board         board.Board
	side          board.Color
	game          board.Color
	lastGame      board.Color
	detector      gameover.Detector
	sel           selection.Selection
	moveInFlight  bool
	replyInFlight bool
	replyFailed   bool
	settling      bool
	moves         []string
	lastMove      string
	lastCue       feedback.Cue
	notice        Notice
	updatedAt     time.Time
	closed        bool

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(collab rules.Collaborator, opts ...Option) (*Engine, error) {
	if collab == nil {
		return nil, errors.New("turn: rules collaborator is required")
	}
	e := &Engine{
		collab:    collab,
		logger:    obslog.L(),
		timeout:   defaultRequestTimeout,
		sessionID: uuid.NewString(),
		board:     board.Initial(),
		side:      board.White,
		subs:      make(map[int]chan Snapshot),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("session_id", e.sessionID))
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e, nil
}

func (e *Engine) SessionID() string { return e.sessionID }

// Start begins a new match with the human playing side.
func (e *Engine) Start(ctx context.Context, side board.Color) error {
	if !side.Valid() {
		return ErrInvalidSide
	}
	return e.begin(ctx, side)
}

// Rematch resets to the initial position and swaps the human's side
// (first match: white).
func (e *Engine) Rematch(ctx context.Context) error {
	e.mu.Lock()
	prev := e.game
	if !prev.Valid() {
		prev = e.lastGame
	}
	e.mu.Unlock()
	next := board.White
	if prev == board.White {
		next = board.Black
	}
	return e.begin(ctx, next)
}

func (e *Engine) begin(ctx context.Context, side board.Color) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.resetLocked()
	gen := e.gen
	e.mu.Unlock()

	rctx, cancel := e.requestContext(ctx)
	err := e.collab.Reset(rctx)
	cancel()

	e.mu.Lock()
	if gen != e.gen {
		cur := e.gen
		e.mu.Unlock()
		return &StaleResponseError{Op: "reset", Generation: gen, Current: cur}
	}
	if err != nil {
		e.notice = NoticeFor(err)
		e.notice.Code = NoticeResetFailed
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Warn("match_reset_failed", zap.String("side", side.String()), zap.Error(err))
		e.publish(snap)
		return err
	}
	e.game = side
	e.lastGame = side
	e.lastCue = feedback.CueGameStart
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("match_start", zap.String("human_side", side.String()), zap.Uint64("generation", gen))
	e.emitter.Emit(ctx, feedback.Classify(feedback.Outcome{GameStart: true}))
	e.record(snap)
	e.publish(snap)
	e.MaybeTriggerEngineReply()
	return nil
}

// resetLocked restores the initial snapshot and invalidates in-flight work.
func (e *Engine) resetLocked() {
	e.gen++
	e.board = board.Initial()
	e.side = board.White
	e.game = board.NoColor
	e.detector.Reset()
	e.sel.Clear()
	e.moveInFlight = false
	e.replyInFlight = false
	e.replyFailed = false
	e.settling = false
	e.moves = nil
	e.lastMove = ""
	e.lastCue = feedback.CueNone
	e.notice = Notice{}
	e.updatedAt = time.Now()
}

type pendingMove struct {
	gen   uint64
	token string
	to    board.Square
}

// beginMoveLocked checks the move preconditions and marks a move in flight.
func (e *Engine) beginMoveLocked(from, to board.Square) (pendingMove, error) {
	switch {
	case e.closed:
		return pendingMove{}, ErrClosed
	case !from.Valid() || !to.Valid():
		return pendingMove{}, ErrInvalidSquare
	case e.detector.Over():
		return pendingMove{}, ErrGameOver
	case !e.game.Valid():
		return pendingMove{}, ErrNoMatch
	case e.moveInFlight:
		return pendingMove{}, ErrMoveInFlight
	case e.settling:
		return pendingMove{}, ErrSettling
	case e.side != e.game:
		return pendingMove{}, ErrNotYourTurn
	}
	piece := e.board.At(from)
	if piece.IsEmpty() || piece.Color != e.side {
		return pendingMove{}, ErrNotYourPiece
	}
	e.sel.Set(from, to)
	e.moveInFlight = true
	e.notice = Notice{}
	return pendingMove{
		gen:   e.gen,
		token: board.MoveToken(from, to, board.PromotionFor(piece, to)),
		to:    to,
	}, nil
}

// RequestMove sends a human move and waits for it to settle. The selection
// is cleared whatever the outcome.
func (e *Engine) RequestMove(ctx context.Context, from, to board.Square) error {
	e.mu.Lock()
	pm, err := e.beginMoveLocked(from, to)
	if err != nil {
		if !e.moveInFlight {
			e.sel.Clear()
		}
		e.notice = NoticeFor(err)
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Debug("move_rejected", zap.String("from", board.SquareName(from)), zap.String("to", board.SquareName(to)), zap.Error(err))
		e.publish(snap)
		return err
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.publish(snap)
	return e.playMove(ctx, pm)
}

func (e *Engine) playMove(ctx context.Context, pm pendingMove) error {
	rctx, cancel := e.requestContext(ctx)
	defer cancel()
	start := time.Now()
	res, err := e.collab.Apply(rctx, pm.token)

	e.mu.Lock()
	if pm.gen != e.gen {
		cur := e.gen
		e.mu.Unlock()
		e.logger.Info("stale_response_discarded", zap.String("op", "move"), zap.String("move", pm.token), zap.Uint64("generation", pm.gen), zap.Uint64("current", cur))
		return &StaleResponseError{Op: "move", Generation: pm.gen, Current: cur}
	}
	e.moveInFlight = false
	e.sel.Clear()
	if err == nil && e.detector.Over() {
		err = ErrGameOver
	}
	if err != nil {
		e.notice = NoticeFor(err)
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Warn("move_failed", zap.String("move", pm.token), zap.Duration("took", time.Since(start)), zap.Error(err))
		e.publish(snap)
		return err
	}
	capture := !e.board.At(pm.to).IsEmpty()
	e.applyLocked(res.Board, pm.token)
	e.mu.Unlock()

	e.logger.Info("move_settled", zap.String("move", pm.token), zap.Bool("capture", capture), zap.Bool("check", res.Check), zap.Duration("took", time.Since(start)))
	e.conclude(ctx, pm.gen, feedback.Outcome{Moved: true, Capture: capture, Check: res.Check}, res.Status, res.HasStatus)
	return nil
}

// applyLocked replaces the board and hands the move to the other side. The
// position stays settling until conclude has observed its status.
func (e *Engine) applyLocked(b board.Board, token string) {
	e.settling = true
	e.board = b
	e.side = e.side.Opponent()
	e.moves = append(e.moves, token)
	e.lastMove = token
	e.updatedAt = time.Now()
}

// conclude runs after a board update: status check, cue, persistence, and
// the reply check, in that order.
func (e *Engine) conclude(ctx context.Context, gen uint64, outcome feedback.Outcome, status gameover.Status, hasStatus bool) {
	if !hasStatus {
		sctx, cancel := e.requestContext(ctx)
		st, err := e.collab.Status(sctx)
		cancel()
		if err != nil {
			e.logger.Warn("status_query_failed", zap.Error(err))
			e.mu.Lock()
			if gen == e.gen {
				e.notice = Notice{Code: NoticeStatusFailed, Detail: err.Error()}
			}
			e.mu.Unlock()
			st = gameover.None
		}
		status = st
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.settling = false
	if e.detector.Observe(status) {
		e.logger.Info("game_over", zap.String("status", status.String()), zap.Int("plies", len(e.moves)))
	}
	outcome.Checkmate = e.detector.Status() == gameover.Checkmate
	cue := feedback.Classify(outcome)
	e.lastCue = cue
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emitter.Emit(ctx, cue)
	e.record(snap)
	e.publish(snap)
	e.MaybeTriggerEngineReply()
}

// MaybeTriggerEngineReply starts the automated reply when it is the
// opponent's turn in a live match and no reply is outstanding.
func (e *Engine) MaybeTriggerEngineReply() bool {
	e.mu.Lock()
	if e.closed || e.settling || e.detector.Over() || !e.game.Valid() || e.side == e.game || e.replyInFlight {
		e.mu.Unlock()
		return false
	}
	e.replyInFlight = true
	e.replyFailed = false
	gen := e.gen
	snap := e.snapshotLocked()
	e.wg.Add(1)
	e.mu.Unlock()

	e.publish(snap)
	go e.runReply(gen)
	return true
}

// RetryReply re-issues an automated reply that failed.
func (e *Engine) RetryReply() bool {
	e.mu.Lock()
	failed := e.replyFailed
	e.mu.Unlock()
	if !failed {
		return false
	}
	return e.MaybeTriggerEngineReply()
}

func (e *Engine) runReply(gen uint64) {
	defer e.wg.Done()
	ctx, cancel := e.requestContext(e.ctx)
	defer cancel()
	start := time.Now()
	rep, err := e.collab.Reply(ctx)

	e.mu.Lock()
	if gen != e.gen {
		cur := e.gen
		e.mu.Unlock()
		e.logger.Info("stale_response_discarded", zap.String("op", "reply"), zap.Uint64("generation", gen), zap.Uint64("current", cur))
		return
	}
	e.replyInFlight = false
	if e.detector.Over() {
		e.mu.Unlock()
		e.logger.Info("reply_discarded", zap.String("move", rep.Move), zap.String("reason", "game over"))
		return
	}
	var to board.Square
	if err == nil {
		to, err = board.SquareFromReply(rep.Move)
	}
	if err != nil {
		e.replyFailed = true
		e.notice = NoticeFor(err)
		e.notice.Code = NoticeReplyFailed
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Warn("reply_failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		e.publish(snap)
		return
	}
	capture := !e.board.At(to).IsEmpty()
	e.applyLocked(rep.Board, rep.Move)
	e.mu.Unlock()

	e.logger.Info("reply_settled", zap.String("move", rep.Move), zap.Bool("capture", capture), zap.Bool("check", rep.Check), zap.Duration("took", time.Since(start)))
	e.conclude(e.ctx, gen, feedback.Outcome{Moved: true, Capture: capture, Check: rep.Check}, rep.Status, rep.HasStatus)
}

// Pick handles a click. A completed pair is dispatched as a move in the
// background.
func (e *Engine) Pick(sq board.Square) selection.Event {
	return e.gesture(func(s *selection.Selection, b *board.Board, side board.Color) selection.Event {
		return s.Pick(b, sq, side)
	})
}

func (e *Engine) DragStart(sq board.Square) selection.Event {
	return e.gesture(func(s *selection.Selection, b *board.Board, side board.Color) selection.Event {
		return s.DragStart(b, sq, side)
	})
}

func (e *Engine) Drop(sq board.Square) selection.Event {
	return e.gesture(func(s *selection.Selection, _ *board.Board, _ board.Color) selection.Event {
		return s.Drop(sq)
	})
}

type gestureFunc func(s *selection.Selection, b *board.Board, side board.Color) selection.Event

// gesture ignores input while a move is in flight or settling, after the
// game is over, and outside the human's turn.
func (e *Engine) gesture(fn gestureFunc) selection.Event {
	e.mu.Lock()
	if e.closed || e.moveInFlight || e.settling || e.detector.Over() || !e.game.Valid() || e.side != e.game {
		e.mu.Unlock()
		return selection.Ignored
	}
	ev := fn(&e.sel, &e.board, e.side)
	if ev == selection.Ignored {
		e.mu.Unlock()
		return ev
	}
	if ev != selection.Completed {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.publish(snap)
		return ev
	}
	from, to, _ := e.sel.Pair()
	pm, err := e.beginMoveLocked(from, to)
	if err != nil {
		e.sel.Clear()
		e.notice = NoticeFor(err)
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.publish(snap)
		return ev
	}
	e.wg.Add(1)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
	go func() {
		defer e.wg.Done()
		_ = e.playMove(e.ctx, pm)
	}()
	return ev
}

// Resume rebuilds a saved match by replaying its moves through the rules
// backend.
func (e *Engine) Resume(ctx context.Context, saved Snapshot) error {
	replayer, ok := e.collab.(rules.Replayer)
	if !ok {
		return ErrNoReplayer
	}
	if !saved.Game.Valid() {
		return ErrNoMatch
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.resetLocked()
	gen := e.gen
	e.mu.Unlock()

	rctx, cancel := e.requestContext(ctx)
	b, err := replayer.Replay(rctx, saved.Moves)
	cancel()
	if err != nil {
		e.mu.Lock()
		if gen == e.gen {
			e.notice = NoticeFor(err)
		}
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	if gen != e.gen {
		cur := e.gen
		e.mu.Unlock()
		return &StaleResponseError{Op: "resume", Generation: gen, Current: cur}
	}
	e.board = b
	e.moves = append([]string(nil), saved.Moves...)
	if n := len(e.moves); n > 0 {
		e.lastMove = e.moves[n-1]
	}
	e.side = board.White
	if len(e.moves)%2 == 1 {
		e.side = board.Black
	}
	e.game = saved.Game
	e.lastGame = saved.Game
	e.updatedAt = time.Now()
	e.mu.Unlock()

	e.logger.Info("match_resume", zap.String("human_side", saved.Game.String()), zap.Int("plies", len(saved.Moves)))
	e.conclude(ctx, gen, feedback.Outcome{GameStart: true}, gameover.None, false)
	return nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:     e.sessionID,
		Generation:    e.gen,
		Board:         e.board,
		Side:          e.side,
		Game:          e.game,
		LastGame:      e.lastGame,
		Status:        e.detector.Status(),
		Selection:     e.sel.Phase(),
		From:          e.sel.From(),
		To:            e.sel.To(),
		MoveInFlight:  e.moveInFlight,
		ReplyInFlight: e.replyInFlight,
		ReplyFailed:   e.replyFailed,
		Settling:      e.settling,
		Moves:         append([]string(nil), e.moves...),
		LastMove:      e.lastMove,
		Cue:           e.lastCue,
		Notice:        e.notice,
		UpdatedAt:     e.updatedAt,
	}
}

// Subscribe returns a channel of snapshots published after every change.
// Slow subscribers miss intermediate snapshots.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()
	return ch, func() {
		e.subMu.Lock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
		e.subMu.Unlock()
	}
}

func (e *Engine) publish(snap Snapshot) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (e *Engine) record(snap Snapshot) {
	if e.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.recorder.Save(ctx, snap); err != nil {
		e.logger.Warn("snapshot_save_failed", zap.Error(err))
	}
}

func (e *Engine) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = e.ctx
	}
	return context.WithTimeout(ctx, e.timeout)
}

// Wait blocks until background moves and replies have settled.
func (e *Engine) Wait() { e.wg.Wait() }

// Close cancels outstanding requests and closes subscriber channels.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	e.subMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subMu.Unlock()
	return nil
}
