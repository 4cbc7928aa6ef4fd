package clientbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/bridge"
	corechess "github.com/park285/cheese-board/internal/chess"
	"github.com/park285/cheese-board/internal/chess/uci"
	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/feedback"
	"github.com/park285/cheese-board/internal/local"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/remote"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/store"
	"github.com/park285/cheese-board/internal/turn"
)

type Deps struct {
	Engine    *turn.Engine
	Rules     rules.Collaborator
	Stockfish *corechess.Engine
	Store     *store.Store
	Catalog   *msgcat.Catalog
	Emitter   *feedback.Emitter
	Hub       *bridge.Hub

	humanSide board.Color
	resumable bool
	logger    *zap.Logger
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{humanSide: cfg.HumanSide, logger: logger}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Catalog = cat

	// Rules collaborator
	collab, err := d.buildRules(cfg, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Rules = collab

	// Sound
	d.Emitter = feedback.NewEmitter(logger.Named("feedback"))
	if strings.TrimSpace(cfg.SoundDir) != "" && strings.TrimSpace(cfg.SoundCommand) != "" {
		player, err := feedback.NewCommandPlayer(cfg.SoundDir, cfg.SoundCommand)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init sound: %w", err)
		}
		d.Emitter.AttachBackground(player)
	}

	// Session store (Redis optional)
	sessionID := cfg.SessionID
	opts := []turn.Option{
		turn.WithEmitter(d.Emitter),
		turn.WithLogger(logger.Named("turn")),
		turn.WithRequestTimeout(cfg.RequestTimeout),
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		st, err := store.Open(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init session store: %w", err)
		}
		d.Store = st
		opts = append(opts, turn.WithRecorder(st))
		d.resumable = sessionID != ""
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	opts = append(opts, turn.WithSessionID(sessionID))

	eng, err := turn.New(collab, opts...)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Engine = eng

	d.Hub = bridge.NewHub(eng, cat, logger.Named("bridge"))
	d.Emitter.Attach(d.Hub)
	return d, nil
}

func (d *Deps) buildRules(cfg *config.AppConfig, logger *zap.Logger) (rules.Collaborator, error) {
	clientOpts := []remote.Option{
		remote.WithTimeout(cfg.RequestTimeout),
		remote.WithRetry(cfg.RetryMax),
		remote.WithLayout(cfg.BoardLayout),
		remote.WithLogger(logger.Named("remote")),
	}
	if cfg.RulesBackend == config.BackendRemote {
		return remote.NewClient(cfg.EngineBaseURL, clientOpts...), nil
	}

	var suggester rules.Suggester
	switch cfg.Suggester {
	case config.SuggesterStockfish:
		opt := uci.DefaultOptions()
		if cfg.EngineThreads > 0 {
			opt.Threads = cfg.EngineThreads
		}
		if cfg.EngineSkill > 0 {
			opt.SkillLevel = cfg.EngineSkill
		}
		if cfg.EngineHashMB > 0 {
			opt.HashMB = cfg.EngineHashMB
		}
		sf, err := corechess.NewEngine(corechess.Config{BinaryPath: cfg.StockfishPath, Depth: cfg.EngineDepth, Options: opt}, logger.Named("stockfish"))
		if err != nil {
			return nil, fmt.Errorf("init stockfish: %w", err)
		}
		d.Stockfish = sf
		suggester = sf
	default:
		suggester = remote.NewClient(cfg.AnalyzeURL, clientOpts...)
	}
	lr, err := local.New(suggester, logger.Named("local"))
	if err != nil {
		return nil, err
	}
	return lr, nil
}

// Begin resumes the configured session from the store when a live snapshot
// exists, and otherwise starts a new match on the configured side.
func (d *Deps) Begin(ctx context.Context) error {
	if d.resumable {
		snap, err := d.Store.Load(ctx, d.Engine.SessionID())
		switch {
		case err != nil:
			d.logger.Warn("session_load_failed", zap.Error(err))
		case snap != nil && snap.Game.Valid() && !snap.Status.Terminal():
			err := d.Engine.Resume(ctx, *snap)
			if err == nil {
				return nil
			}
			if !errors.Is(err, turn.ErrNoReplayer) {
				d.logger.Warn("session_resume_failed", zap.Error(err))
			}
		}
	}
	return d.Engine.Start(ctx, d.humanSide)
}

func (d *Deps) Close() {
	if d.Engine != nil {
		_ = d.Engine.Close()
	}
	d.Emitter.Close()
	if d.Stockfish != nil {
		_ = d.Stockfish.Close()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}
