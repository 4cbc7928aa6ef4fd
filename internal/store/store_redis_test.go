package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/turn"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func sampleSnapshot(id string) turn.Snapshot {
	b := board.Initial()
	b.Set(board.Square{Rank: 6, File: 4}, board.Empty)
	b.Set(board.Square{Rank: 4, File: 4}, board.Piece{Type: board.Pawn, Color: board.White})
	return turn.Snapshot{
		SessionID: id,
		Board:     b,
		Side:      board.Black,
		Game:      board.White,
		Status:    gameover.None,
		Moves:     []string{"e2e4"},
		LastMove:  "e2e4",
		UpdatedAt: time.Now(),
	}
}

func TestSaveLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	snap := sampleSnapshot("s1")
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "s1")
	if err != nil || got == nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Board != snap.Board || got.Side != board.Black || got.Game != board.White {
		t.Fatalf("loaded %+v", got)
	}
	if len(got.Moves) != 1 || got.Moves[0] != "e2e4" {
		t.Fatalf("moves %v", got.Moves)
	}
	if ttl := mr.TTL(s.keySession("s1")); ttl != time.Hour {
		t.Fatalf("ttl %v", ttl)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.Load(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}

func TestExpiredSessionPrunedFromRecent(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		snap := sampleSnapshot(fmt.Sprintf("s%d", i))
		snap.UpdatedAt = time.Unix(int64(1000+i), 0)
		if err := s.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	mr.Del(s.keySession("s1"))

	ids, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(ids) != 2 || ids[0] != "s2" || ids[1] != "s0" {
		t.Fatalf("recent %v", ids)
	}
	if err := s.Delete(ctx, "s2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := s.Load(ctx, "s2"); got != nil {
		t.Fatalf("deleted session still loads")
	}
}

func TestSaveRequiresSessionID(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Save(context.Background(), turn.Snapshot{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "", time.Hour); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := Open(context.Background(), "http://nope", time.Hour); err == nil {
		t.Fatalf("expected error for bad scheme")
	}
}

func TestOpenPings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	s, err := Open(context.Background(), "redis://"+mr.Addr()+"/0", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.ttl != defaultTTL {
		t.Fatalf("default ttl %v", s.ttl)
	}
}
