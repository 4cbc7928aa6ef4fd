package msgcat

import (
	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/turn"
)

// Notice renders a turn notice as "notice.<code>". Unknown codes fall back to
// the code itself plus detail.
func (c *Catalog) Notice(n turn.Notice) string {
	if n.IsZero() {
		return ""
	}
	def := n.Code
	if n.Detail != "" {
		def += ": " + n.Detail
	}
	return c.RenderOr("notice."+n.Code, map[string]any{"Detail": n.Detail}, def)
}

// Status renders the headline for a snapshot: whose turn it is or how the
// game ended.
func (c *Catalog) Status(s turn.Snapshot) string {
	data := map[string]any{
		"Side":  sideName(s.Side),
		"Human": sideName(s.Game),
	}
	switch s.Phase() {
	case turn.Checkmate:
		data["Winner"] = sideName(s.Side.Opponent())
		return c.RenderOr("status.checkmate", data, "checkmate")
	case turn.Draw:
		return c.RenderOr("status.draw", data, "draw")
	case turn.InProgress:
		if s.ReplyInFlight {
			return c.RenderOr("status.thinking", data, "engine thinking")
		}
		if s.Side == s.Game {
			return c.RenderOr("status.your_turn", data, "your move")
		}
		return c.RenderOr("status.engine_turn", data, "engine to move")
	default:
		return c.RenderOr("status.not_started", data, "no match")
	}
}

func sideName(c board.Color) string {
	switch c {
	case board.White:
		return "White"
	case board.Black:
		return "Black"
	default:
		return "-"
	}
}
