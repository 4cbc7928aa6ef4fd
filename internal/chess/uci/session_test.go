package uci

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const fakeEngine = `#!/bin/sh
while read line; do
  case "$line" in
    uci) echo "id name fake"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "info depth 1 multipv 1 score cp 31 pv e7e5 g1f3"; echo "bestmove e7e5 ponder g1f3" ;;
    quit) exit 0 ;;
  esac
done
`

// writeFakeEngine installs a shell script speaking enough UCI for a search.
func writeFakeEngine(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	path := filepath.Join(t.TempDir(), "fake-uci")
	if err := os.WriteFile(path, []byte(fakeEngine), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func TestSessionSearch(t *testing.T) {
	bin := writeFakeEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewSession(ctx, bin, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	if err := s.NewGame(ctx); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	resp, err := s.Search(ctx, SearchRequest{Moves: []string{"e2e4"}, Limits: Limits{Depth: 20}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "e7e5" || resp.Ponder != "g1f3" {
		t.Fatalf("response %+v", resp)
	}
}

func TestBuildPositionCommand(t *testing.T) {
	if got := buildPositionCommand("", []string{"e2e4", "e7e5"}); got != "position startpos moves e2e4 e7e5\n" {
		t.Fatalf("got %q", got)
	}
	fen := "8/8/8/8/8/8/8/K6k w - - 0 1"
	if got := buildPositionCommand(fen, nil); got != "position fen "+fen+"\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildGoTokens(t *testing.T) {
	got, err := buildGoTokens(Limits{Depth: 20})
	if err != nil || strings.Join(got, " ") != "go depth 20" {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := buildGoTokens(Limits{}); err == nil {
		t.Fatalf("expected error without limits")
	}
}

func TestParseBestMove(t *testing.T) {
	cases := map[string]SearchResponse{
		"bestmove e2e4":              {BestMove: "e2e4"},
		"bestmove e7e8q ponder a2a3": {BestMove: "e7e8q", Ponder: "a2a3"},
		"bestmove (none)":            {BestMove: "(none)"},
	}
	for line, want := range cases {
		got, ok := parseBestMove(line)
		if !ok || got != want {
			t.Fatalf("parseBestMove(%q) = %+v, %v", line, got, ok)
		}
	}
	for _, line := range []string{"info depth 12 score mate -3 pv h7h6", "", "readyok"} {
		if _, ok := parseBestMove(line); ok {
			t.Fatalf("%q is not a bestmove line", line)
		}
	}
}

func TestOptionCommands(t *testing.T) {
	cmds := optionCommands(Options{Threads: 0, SkillLevel: 5, HashMB: 32})
	joined := strings.Join(cmds, "")
	for _, want := range []string{"Threads value 1\n", "Hash value 32\n", "Skill Level value 5\n"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, cmds)
		}
	}
	if err := validateOptions(Options{SkillLevel: 21, HashMB: 1}); err == nil {
		t.Fatalf("expected skill level error")
	}
	if err := validateOptions(Options{SkillLevel: 3}); err == nil {
		t.Fatalf("expected hash size error")
	}
}
