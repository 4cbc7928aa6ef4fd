// Package chess adapts a local UCI engine into a reply Suggester.
package chess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/chess/uci"
	"github.com/park285/cheese-board/internal/rules"
)

const defaultDepth = 20

var _ rules.Suggester = (*Engine)(nil)

type Config struct {
	BinaryPath string
	Depth      int
	Options    uci.Options
}

// Engine keeps one UCI session, started on first use and replaced after any
// failed search.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	session *uci.Session
}

func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		return nil, errors.New("stockfish binary path is required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("stockfish binary check: %w", err)
	}
	if cfg.Depth <= 0 {
		cfg.Depth = defaultDepth
	}
	if cfg.Options == (uci.Options{}) {
		cfg.Options = uci.DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Suggest searches the position and returns the engine's best move.
// A move list is sent from the start position; otherwise the FEN is used.
func (e *Engine) Suggest(ctx context.Context, req rules.SuggestRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.ensureSession(ctx)
	if err != nil {
		return "", err
	}

	search := uci.SearchRequest{FEN: req.FEN, Limits: uci.Limits{Depth: e.cfg.Depth}}
	if len(req.Moves) > 0 {
		search.FEN = "startpos"
		search.Moves = req.Moves
	}

	start := time.Now()
	resp, err := session.Search(ctx, search)
	if err != nil {
		e.discardLocked()
		return "", fmt.Errorf("engine search: %w", err)
	}
	if resp.BestMove == "" || resp.BestMove == "(none)" {
		return "", errors.New("engine returned no move")
	}
	e.logger.Debug("engine_bestmove",
		zap.String("move", resp.BestMove),
		zap.Int("depth", e.cfg.Depth),
		zap.String("ponder", resp.Ponder),
		zap.Duration("took", time.Since(start)),
	)
	return resp.BestMove, nil
}

func (e *Engine) ensureSession(ctx context.Context) (*uci.Session, error) {
	if e.session != nil {
		if err := e.session.EnsureReady(ctx); err == nil {
			return e.session, nil
		}
		e.discardLocked()
	}
	s, err := uci.NewSession(ctx, e.cfg.BinaryPath, e.cfg.Options, e.logger)
	if err != nil {
		return nil, fmt.Errorf("start engine session: %w", err)
	}
	if err := s.NewGame(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	e.session = s
	return s, nil
}

func (e *Engine) discardLocked() {
	if e.session != nil {
		_ = e.session.Close()
		e.session = nil
	}
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardLocked()
	return nil
}
