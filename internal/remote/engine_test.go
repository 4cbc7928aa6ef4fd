package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/rules"
)

const afterE2E4 = "RNBQKBNRPPPP.PPP............P...................pppppppprnbqkbnr"

func newTestServer(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithTimeout(2*time.Second), WithRetry(2))
}

func TestApplyDecodesBoardAndNumericCheck(t *testing.T) {
	var gotMove string
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/make_move" {
			http.NotFound(w, r)
			return
		}
		gotMove = r.URL.Query().Get("move")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"board":"`+afterE2E4+`","isCheck":1}`)
	}))

	res, err := c.Apply(context.Background(), "e2e4")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if gotMove != "e2e4" {
		t.Fatalf("server saw move %q", gotMove)
	}
	if !res.Check {
		t.Fatalf("isCheck 1 should decode as true")
	}
	if p := res.Board.At(board.Square{Rank: 4, File: 4}); p != (board.Piece{Type: board.Pawn, Color: board.White}) {
		t.Fatalf("e4 should hold a white pawn, got %+v", p)
	}
	if !res.Board.At(board.Square{Rank: 6, File: 4}).IsEmpty() {
		t.Fatalf("e2 should be empty")
	}
}

func TestApplyIllegal(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Illegal move: e2e5"}`)
	}))
	_, err := c.Apply(context.Background(), "e2e5")
	var ie *rules.IllegalMoveError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IllegalMoveError, got %v", err)
	}
	if ie.Reason != "Illegal move: e2e5" {
		t.Fatalf("reason: %q", ie.Reason)
	}
}

func TestApplyErrorBodyOn200(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"not your turn"}`)
	}))
	if _, err := c.Apply(context.Background(), "e2e4"); !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("expected illegal move, got %v", err)
	}
}

func TestApplyMalformedBoard(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"board":"short","isCheck":false}`)
	}))
	if _, err := c.Apply(context.Background(), "e2e4"); !errors.Is(err, board.ErrMalformedBoard) {
		t.Fatalf("expected malformed board, got %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(url, WithTimeout(500*time.Millisecond), WithRetry(1))

	if _, err := c.Apply(context.Background(), "e2e4"); !rules.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if err := c.Reset(context.Background()); !rules.IsNetwork(err) {
		t.Fatalf("expected network error on reset, got %v", err)
	}
}

func TestServerErrorIsNetwork(t *testing.T) {
	var calls int32
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	if _, err := c.Status(context.Background()); !rules.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("status should be retried: %d calls", n)
	}
}

func TestReplyAndStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/genmove", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"move": "e7e5", "board": board.Codec{Layout: board.LayoutRank1First}.Encode(board.Initial()), "isCheck": false})
	})
	mux.HandleFunc("/game", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"gameState":"checkmate"}`)
	})
	c := newTestServer(t, mux)

	rep, err := c.Reply(context.Background())
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if rep.Move != "e7e5" || rep.Check {
		t.Fatalf("reply: %+v", rep)
	}
	st, err := c.Status(context.Background())
	if err != nil || st != gameover.Checkmate {
		t.Fatalf("Status = %v, %v", st, err)
	}
}

func TestReplayResetsThenApplies(t *testing.T) {
	var seq []string
	mux := http.NewServeMux()
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		seq = append(seq, "reset")
		_, _ = io.WriteString(w, "OK")
	})
	mux.HandleFunc("/make_move", func(w http.ResponseWriter, r *http.Request) {
		seq = append(seq, r.URL.Query().Get("move"))
		_, _ = io.WriteString(w, `{"board":"`+afterE2E4+`","isCheck":0}`)
	})
	c := newTestServer(t, mux)

	b, err := c.Replay(context.Background(), []string{"e2e4"})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(seq) != 2 || seq[0] != "reset" || seq[1] != "e2e4" {
		t.Fatalf("sequence: %v", seq)
	}
	if b.At(board.Square{Rank: 4, File: 4}).IsEmpty() {
		t.Fatalf("replayed board missing e4 pawn")
	}
}

func TestSuggestSecondToken(t *testing.T) {
	c := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			http.NotFound(w, r)
			return
		}
		var req analyzeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Position == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"results":"bestmove g1f3 ponder d7d5"}`)
	}))
	mv, err := c.Suggest(context.Background(), rules.SuggestRequest{FEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"})
	if err != nil || mv != "g1f3" {
		t.Fatalf("Suggest = %q, %v", mv, err)
	}
}

func TestFlexBool(t *testing.T) {
	cases := map[string]bool{`true`: true, `false`: false, `1`: true, `0`: false, `"1"`: true, `"false"`: false, `null`: false}
	for in, want := range cases {
		var b flexBool
		if err := json.Unmarshal([]byte(in), &b); err != nil || bool(b) != want {
			t.Fatalf("%s: got %v, %v", in, b, err)
		}
	}
	var b flexBool
	if err := json.Unmarshal([]byte(`"maybe"`), &b); err == nil {
		t.Fatalf("expected error")
	}
}
