package clientbuilder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/turn"
)

// analyzeServer answers /analyze with scripted best moves.
func analyzeServer(t *testing.T, moves ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if len(moves) == 0 {
			http.Error(w, `{"error":"no moves"}`, http.StatusInternalServerError)
			return
		}
		mv := moves[0]
		moves = moves[1:]
		_ = json.NewEncoder(w).Encode(map[string]string{"results": "bestmove " + mv + " ponder (none)"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func localConfig(analyzeURL string) *config.AppConfig {
	return &config.AppConfig{
		EngineBaseURL:  analyzeURL,
		RulesBackend:   config.BackendLocal,
		Suggester:      config.SuggesterAnalyze,
		AnalyzeURL:     analyzeURL,
		BoardLayout:    board.LayoutRank1First,
		RequestTimeout: 2 * time.Second,
		RetryMax:       1,
		HumanSide:      board.White,
		SessionTTL:     time.Hour,
	}
}

func TestLocalBackendWithAnalyze(t *testing.T) {
	srv := analyzeServer(t, "e7e5")
	ctx := context.Background()

	deps, err := New(ctx, localConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()
	if deps.Store != nil || deps.Stockfish != nil {
		t.Fatalf("unexpected optional deps")
	}

	if err := deps.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := deps.Engine.RequestMove(ctx, board.Square{Rank: 6, File: 4}, board.Square{Rank: 4, File: 4}); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	deps.Engine.Wait()
	snap := deps.Engine.Snapshot()
	if len(snap.Moves) != 2 || snap.Moves[1] != "e7e5" || snap.Side != board.White {
		t.Fatalf("snapshot %+v", snap)
	}
}

func TestResumeFromStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	srv := analyzeServer(t, "e7e5")
	ctx := context.Background()

	cfg := localConfig(srv.URL)
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.SessionID = "desk-1"

	first, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := first.Engine.RequestMove(ctx, board.Square{Rank: 6, File: 3}, board.Square{Rank: 4, File: 3}); err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	first.Engine.Wait()
	first.Close()

	second, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer second.Close()
	if err := second.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	snap := second.Engine.Snapshot()
	if snap.SessionID != "desk-1" || snap.Phase() != turn.InProgress {
		t.Fatalf("resumed %+v", snap)
	}
	if len(snap.Moves) != 2 || snap.Moves[0] != "d2d4" || snap.Side != board.White {
		t.Fatalf("moves %v side %v", snap.Moves, snap.Side)
	}
	if snap.Board.At(board.Square{Rank: 4, File: 3}).Type != board.Pawn {
		t.Fatalf("board not replayed:\n%s", snap.Board)
	}
}

func TestStockfishRequiresBinary(t *testing.T) {
	cfg := localConfig("http://localhost:1")
	cfg.Suggester = config.SuggesterStockfish
	cfg.StockfishPath = "/definitely/not/stockfish"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}
