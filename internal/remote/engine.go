package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/gameover"
	"github.com/park285/cheese-board/internal/rules"
)

var (
	_ rules.Collaborator = (*Client)(nil)
	_ rules.Replayer     = (*Client)(nil)
	_ rules.Suggester    = (*Client)(nil)
)

// Reset asks the server to start a new game.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.do(ctx, fasthttp.MethodGet, "/reset", nil, nil, nil, true); err != nil {
		return &rules.NetworkError{Op: "reset", Err: err}
	}
	return nil
}

// Apply sends a human move. A 4xx reply or an error body means the server
// rejected it.
func (c *Client) Apply(ctx context.Context, move string) (rules.MoveResult, error) {
	var resp moveResponse
	q := url.Values{"move": []string{move}}
	if err := c.do(ctx, fasthttp.MethodGet, "/make_move", q, nil, &resp, false); err != nil {
		if reason, ok := rejection(err); ok {
			return rules.MoveResult{}, &rules.IllegalMoveError{Move: move, Reason: reason}
		}
		return rules.MoveResult{}, &rules.NetworkError{Op: "make_move", Err: err}
	}
	if strings.TrimSpace(resp.Error) != "" {
		return rules.MoveResult{}, &rules.IllegalMoveError{Move: move, Reason: resp.Error}
	}
	b, err := c.codec.Decode(resp.Board)
	if err != nil {
		return rules.MoveResult{}, fmt.Errorf("make_move board: %w", err)
	}
	return rules.MoveResult{Board: b, Check: bool(resp.IsCheck)}, nil
}

// Reply asks the server to play the automated opponent's move.
func (c *Client) Reply(ctx context.Context) (rules.Reply, error) {
	var resp genmoveResponse
	if err := c.do(ctx, fasthttp.MethodGet, "/genmove", nil, nil, &resp, false); err != nil {
		return rules.Reply{}, &rules.NetworkError{Op: "genmove", Err: err}
	}
	if strings.TrimSpace(resp.Error) != "" {
		return rules.Reply{}, &rules.NetworkError{Op: "genmove", Err: errors.New(resp.Error)}
	}
	if _, err := board.SquareFromReply(resp.Move); err != nil {
		return rules.Reply{}, fmt.Errorf("genmove move: %w", err)
	}
	b, err := c.codec.Decode(resp.Board)
	if err != nil {
		return rules.Reply{}, fmt.Errorf("genmove board: %w", err)
	}
	return rules.Reply{Move: strings.ToLower(strings.TrimSpace(resp.Move)), Board: b, Check: bool(resp.IsCheck)}, nil
}

// Status queries the server's game state.
func (c *Client) Status(ctx context.Context) (gameover.Status, error) {
	var resp gameResponse
	if err := c.do(ctx, fasthttp.MethodGet, "/game", nil, nil, &resp, true); err != nil {
		return gameover.None, &rules.NetworkError{Op: "game", Err: err}
	}
	return gameover.Parse(resp.GameState)
}

// Replay resets the server and plays moves in order, returning the final board.
func (c *Client) Replay(ctx context.Context, moves []string) (board.Board, error) {
	if err := c.Reset(ctx); err != nil {
		return board.Board{}, err
	}
	b := board.Initial()
	for i, mv := range moves {
		res, err := c.Apply(ctx, mv)
		if err != nil {
			return board.Board{}, fmt.Errorf("replay move %d (%s): %w", i+1, mv, err)
		}
		b = res.Board
	}
	c.logger.Debug("engine_replay", zap.Int("moves", len(moves)))
	return b, nil
}

// Suggest posts a FEN to /analyze and returns the second token of results,
// e.g. "bestmove e2e4 ponder e7e5" -> "e2e4".
func (c *Client) Suggest(ctx context.Context, req rules.SuggestRequest) (string, error) {
	if strings.TrimSpace(req.FEN) == "" {
		return "", errors.New("analyze: fen is required")
	}
	var resp analyzeResponse
	if err := c.do(ctx, fasthttp.MethodPost, "/analyze", nil, analyzeRequest{Position: req.FEN}, &resp, false); err != nil {
		return "", &rules.NetworkError{Op: "analyze", Err: err}
	}
	fields := strings.Fields(resp.Results)
	if len(fields) < 2 {
		return "", fmt.Errorf("analyze: unexpected results %q", resp.Results)
	}
	return fields[1], nil
}

// rejection extracts the server's reason from a 4xx reply.
func rejection(err error) (string, bool) {
	var se *statusError
	if !errors.As(err, &se) || se.Status < 400 || se.Status >= 500 {
		return "", false
	}
	var body errorResponse
	if json.Unmarshal([]byte(se.Body), &body) == nil && strings.TrimSpace(body.Error) != "" {
		return body.Error, true
	}
	return strings.TrimSpace(truncate(se.Body, 256)), true
}
