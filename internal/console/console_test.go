package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/local"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/turn"
)

type scripted struct {
	mu    sync.Mutex
	moves []string
}

func (s *scripted) Suggest(context.Context, rules.SuggestRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moves) == 0 {
		return "", errors.New("out of moves")
	}
	mv := s.moves[0]
	s.moves = s.moves[1:]
	return mv, nil
}

// syncBuffer guards a bytes.Buffer for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newConsole(t *testing.T, input string, replies ...string) (*Console, *turn.Engine, *syncBuffer) {
	t.Helper()
	r, err := local.New(&scripted{moves: replies}, nil)
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	eng, err := turn.New(r, turn.WithRequestTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("turn.New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	out := &syncBuffer{}
	return New(eng, cat, strings.NewReader(input), out, nil), eng, out
}

func TestConsoleSession(t *testing.T) {
	c, eng, out := newConsole(t, "help\nstart w\nmove e2 e4\nfly\nquit\nmove d2d4\n", "e7e5")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	eng.Wait()

	got := out.String()
	for _, want := range []string{"No match in progress.", "rematch", "Unknown command fly", "Bye."} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	snap := eng.Snapshot()
	if len(snap.Moves) != 2 || snap.Moves[0] != "e2e4" {
		t.Fatalf("moves %v", snap.Moves)
	}
}

func TestConsoleReportsRejection(t *testing.T) {
	c, eng, out := newConsole(t, "e2e4\nstart b\nd7d5\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	eng.Wait()
	got := out.String()
	if !strings.Contains(got, "No match in progress. Type start to begin.") {
		t.Fatalf("missing no_match notice:\n%s", got)
	}
	if !strings.Contains(got, "Wait for your turn.") {
		t.Fatalf("missing not_your_turn notice:\n%s", got)
	}
	if eng.Snapshot().Game != board.Black {
		t.Fatalf("human side %v", eng.Snapshot().Game)
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		typ  string
		ok   bool
		from string
	}{
		{"start b", "start", true, ""},
		{"pick e2", "pick", true, ""},
		{"move e2 e4", "move", true, "e2"},
		{"e7e8q", "move", true, ""},
		{"dance", "", false, ""},
	}
	for _, tc := range cases {
		cmd, ok := parseCommand(strings.Fields(tc.in))
		if ok != tc.ok || cmd.Type != tc.typ || cmd.From != tc.from {
			t.Fatalf("parseCommand(%q) = %+v, %v", tc.in, cmd, ok)
		}
	}
}

func TestRenderBoardFlipsForBlack(t *testing.T) {
	snap := turn.Snapshot{Board: board.Initial(), Game: board.Black, From: board.NoSquare, To: board.NoSquare}
	lines := strings.Split(renderBoard(snap), "\n")
	if !strings.HasPrefix(lines[0], "1 ") || !strings.Contains(lines[0], " R ") {
		t.Fatalf("black view first line %q", lines[0])
	}
	if !strings.Contains(lines[8], " h ") || strings.Index(lines[8], "h") > strings.Index(lines[8], "a") {
		t.Fatalf("files not reversed: %q", lines[8])
	}
}
