// Package console is a line-oriented front end for terminals.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/bridge"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/turn"
	"github.com/park285/cheese-board/pkg/boarddto"
)

var (
	selectedSquare = color.New(color.FgYellow, color.Bold)
	lastMoveLine   = color.New(color.FgCyan)
	noticeLine     = color.New(color.FgRed)
)

type Console struct {
	game   bridge.Game
	cat    *msgcat.Catalog
	in     io.Reader
	out    io.Writer
	logger *zap.Logger

	mu   sync.Mutex // serializes writes to out
	seen string
}

func New(game bridge.Game, cat *msgcat.Catalog, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{game: game, cat: cat, in: in, out: out, logger: logger}
}

// Run reads commands until EOF, "quit" or ctx ends. Snapshots published by
// the engine are printed as they arrive.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps, unsubscribe := c.game.Subscribe()
	defer unsubscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				c.show(snap, false)
			}
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	c.show(c.game.Snapshot(), true)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if quit := c.handle(ctx, line); quit {
				c.println(c.cat.RenderOr("console.bye", nil, "bye"))
				return nil
			}
		}
	}
}

// handle runs one input line and reports whether the user asked to quit.
func (c *Console) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.println(strings.TrimRight(c.cat.RenderOr("console.help", nil, "start | rematch | pick | drag | drop | move | retry | board | quit"), "\n"))
		return false
	case "board", "b":
		c.show(c.game.Snapshot(), true)
		return false
	}

	cmd, ok := parseCommand(fields)
	if !ok {
		c.println(c.cat.RenderOr("console.unknown", map[string]any{"Command": fields[0]}, "unknown command "+fields[0]))
		return false
	}
	if _, err := bridge.Dispatch(ctx, c.game, cmd); err != nil {
		var stale *turn.StaleResponseError
		if errors.As(err, &stale) {
			return false
		}
		c.logger.Debug("console_command_rejected", zap.String("line", line), zap.Error(err))
		c.println(noticeLine.Sprint(c.cat.Notice(turn.NoticeFor(err))))
	}
	return false
}

func parseCommand(fields []string) (boarddto.Command, bool) {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	switch fields[0] {
	case "start", "new":
		return boarddto.Command{Type: boarddto.CommandStart, Side: arg(1)}, true
	case "rematch":
		return boarddto.Command{Type: boarddto.CommandRematch}, true
	case "pick", "p":
		return boarddto.Command{Type: boarddto.CommandPick, Square: arg(1)}, true
	case "drag":
		return boarddto.Command{Type: boarddto.CommandDrag, Square: arg(1)}, true
	case "drop":
		return boarddto.Command{Type: boarddto.CommandDrop, Square: arg(1)}, true
	case "move", "m":
		if len(fields) >= 3 {
			return boarddto.Command{Type: boarddto.CommandMove, From: fields[1], To: fields[2]}, true
		}
		return boarddto.Command{Type: boarddto.CommandMove, Square: arg(1)}, true
	case "retry":
		return boarddto.Command{Type: boarddto.CommandRetry}, true
	}
	// a bare token such as "e2e4" is a move
	if _, _, _, err := board.ParseMoveToken(fields[0]); err == nil {
		return boarddto.Command{Type: boarddto.CommandMove, Square: fields[0]}, true
	}
	return boarddto.Command{}, false
}

// show prints the board and status. Unless force is set, a snapshot that
// changes nothing visible is skipped.
func (c *Console) show(snap turn.Snapshot, force bool) {
	key := fmt.Sprintf("%d|%d|%s|%s|%s|%t|%t", snap.Generation, len(snap.Moves), snap.Status, snap.Notice.Code, snap.Side, snap.ReplyInFlight, snap.ReplyFailed)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !force && key == c.seen {
		return
	}
	c.seen = key

	var sb strings.Builder
	sb.WriteString(renderBoard(snap))
	if snap.LastMove != "" {
		sb.WriteString(lastMoveLine.Sprintf("last: %s", snap.LastMove))
		sb.WriteByte('\n')
	}
	sb.WriteString(c.cat.Status(snap))
	sb.WriteByte('\n')
	if !snap.Notice.IsZero() {
		sb.WriteString(noticeLine.Sprint(c.cat.Notice(snap.Notice)))
		sb.WriteByte('\n')
	}
	_, _ = io.WriteString(c.out, sb.String())
}

func (c *Console) println(s string) {
	if s == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s+"\n")
}

// renderBoard draws the board from the human's side with rank and file
// labels. Empty squares are dots.
func renderBoard(snap turn.Snapshot) string {
	ranks := []int{0, 1, 2, 3, 4, 5, 6, 7}
	files := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if snap.Game == board.Black {
		for i, j := 0, 7; i < j; i, j = i+1, j-1 {
			ranks[i], ranks[j] = ranks[j], ranks[i]
			files[i], files[j] = files[j], files[i]
		}
	}
	var sb strings.Builder
	for _, r := range ranks {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for _, f := range files {
			sq := board.Square{Rank: r, File: f}
			ch := snap.Board.At(sq).Letter()
			if sq == snap.From || sq == snap.To {
				sb.WriteString(selectedSquare.Sprintf("[%c]", ch))
				continue
			}
			fmt.Fprintf(&sb, " %c ", ch)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  ")
	for _, f := range files {
		fmt.Fprintf(&sb, " %c ", 'a'+f)
	}
	sb.WriteByte('\n')
	return sb.String()
}
