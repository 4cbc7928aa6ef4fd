package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/board"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"

	SuggesterAnalyze   = "analyze"
	SuggesterStockfish = "stockfish"
)

type AppConfig struct {
	EngineBaseURL  string
	RulesBackend   string
	Suggester      string
	AnalyzeURL     string
	BoardLayout    board.Layout
	RequestTimeout time.Duration
	RetryMax       int
	HumanSide      board.Color

	StockfishPath string
	EngineDepth   int
	EngineSkill   int
	EngineThreads int
	EngineHashMB  int

	SoundDir     string
	SoundCommand string

	RedisURL   string
	SessionID  string
	SessionTTL time.Duration

	ListenAddr  string
	MessagesDir string
	Console     bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EngineBaseURL:  "http://localhost:4000",
		RulesBackend:   BackendRemote,
		Suggester:      SuggesterAnalyze,
		BoardLayout:    board.LayoutRank1First,
		RequestTimeout: 10 * time.Second,
		RetryMax:       3,
		HumanSide:      board.White,
		EngineDepth:    20,
		SessionTTL:     24 * time.Hour,
		ListenAddr:     ":8080",
	}

	if v := env("ENGINE_BASE_URL"); v != "" {
		cfg.EngineBaseURL = strings.TrimRight(v, "/")
	}
	if v := env("RULES_BACKEND"); v != "" {
		cfg.RulesBackend = strings.ToLower(v)
	}
	if v := env("SUGGESTER"); v != "" {
		cfg.Suggester = strings.ToLower(v)
	}
	cfg.AnalyzeURL = env("ANALYZE_URL")
	if cfg.AnalyzeURL == "" {
		cfg.AnalyzeURL = cfg.EngineBaseURL
	}
	if v := env("BOARD_LAYOUT"); v != "" {
		l, err := board.ParseLayout(v)
		if err != nil {
			return nil, fmt.Errorf("BOARD_LAYOUT: %w", err)
		}
		cfg.BoardLayout = l
	}
	if v := env("REQUEST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := env("RETRY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetryMax = n
		}
	}
	if v := env("HUMAN_SIDE"); v != "" {
		c, ok := board.ParseColor(v)
		if !ok {
			return nil, fmt.Errorf("HUMAN_SIDE must be w or b, got %q", v)
		}
		cfg.HumanSide = c
	}

	// Stockfish
	cfg.StockfishPath = env("STOCKFISH_PATH")
	cfg.EngineDepth = positiveInt("ENGINE_DEPTH", cfg.EngineDepth)
	cfg.EngineSkill = positiveInt("ENGINE_SKILL", 0)
	cfg.EngineThreads = positiveInt("ENGINE_THREADS", 0)
	cfg.EngineHashMB = positiveInt("ENGINE_HASH_MB", 0)

	cfg.SoundDir = env("SOUND_DIR")
	cfg.SoundCommand = env("SOUND_COMMAND")

	cfg.RedisURL = env("REDIS_URL")
	cfg.SessionID = env("SESSION_ID")
	if v := env("SESSION_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		}
	}

	if v := env("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	cfg.MessagesDir = env("MESSAGES_DIR")
	if v := env("CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Console = b
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.RulesBackend {
	case BackendRemote, BackendLocal:
	default:
		return fmt.Errorf("RULES_BACKEND must be remote or local, got %q", c.RulesBackend)
	}
	switch c.Suggester {
	case SuggesterAnalyze, SuggesterStockfish:
	default:
		return fmt.Errorf("SUGGESTER must be analyze or stockfish, got %q", c.Suggester)
	}
	if c.RulesBackend == BackendRemote || c.Suggester == SuggesterAnalyze {
		u, err := url.Parse(c.EngineBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ENGINE_BASE_URL is not a valid url: %q", c.EngineBaseURL)
		}
	}
	if c.RulesBackend == BackendLocal && c.Suggester == SuggesterStockfish && c.StockfishPath == "" {
		return errors.New("STOCKFISH_PATH is required when SUGGESTER=stockfish")
	}
	if c.EngineSkill > 20 {
		return fmt.Errorf("ENGINE_SKILL must be 0..20, got %d", c.EngineSkill)
	}
	return nil
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func positiveInt(k string, def int) int {
	if v := env(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
