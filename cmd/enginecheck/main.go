package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/remote"
	"github.com/park285/cheese-board/internal/rules"
)

func main() {
	genmove := flag.Bool("genmove", false, "also play e2e4 and ask for a reply")
	flag.Parse()

	baseURL := strings.TrimSpace(os.Getenv("ENGINE_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:4000"
	}
	layout := board.LayoutRank1First
	if v := os.Getenv("BOARD_LAYOUT"); v != "" {
		l, err := board.ParseLayout(v)
		if err != nil {
			log.Fatalf("BOARD_LAYOUT: %v", err)
		}
		layout = l
	}

	client := remote.NewClient(baseURL, remote.WithTimeout(8*time.Second), remote.WithLayout(layout))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Reset(ctx); err != nil {
		log.Fatalf("/reset error: %v", err)
	}
	log.Printf("/reset ok (%s)", client.BaseURL())

	st, err := client.Status(ctx)
	if err != nil {
		log.Printf("/game error: %v", err)
	} else {
		log.Printf("/game ok: state=%s", st)
	}

	if !*genmove {
		return
	}

	res, err := client.Apply(ctx, "e2e4")
	if err != nil {
		log.Fatalf("/make_move error: %v", err)
	}
	log.Printf("/make_move ok: check=%t\n%s", res.Check, res.Board)

	rep, err := client.Reply(ctx)
	if err != nil {
		log.Fatalf("/genmove error: %v", err)
	}
	log.Printf("/genmove ok: move=%s check=%t\n%s", rep.Move, rep.Check, rep.Board)

	if _, err := client.Apply(ctx, "e2e4"); err != nil {
		if rules.IsNetwork(err) {
			log.Printf("/make_move (illegal move check) network error: %v", err)
		} else {
			log.Printf("/make_move (illegal move check) rejected as expected: %v", err)
		}
	} else {
		log.Printf("/make_move (illegal move check) was accepted; server does not validate moves")
	}
	_ = client.Reset(ctx)
}
