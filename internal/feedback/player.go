package feedback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultPlayTimeout = 5 * time.Second

// CommandPlayer runs an external audio command with <dir>/<cue>.mp3 appended
// to its arguments, e.g. "mpg123 -q".
type CommandPlayer struct {
	dir     string
	command []string
	timeout time.Duration
}

func NewCommandPlayer(dir, command string) (*CommandPlayer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("sound dir is required")
	}
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("sound command is required")
	}
	return &CommandPlayer{dir: dir, command: argv, timeout: defaultPlayTimeout}, nil
}

// Path returns the file played for cue.
func (p *CommandPlayer) Path(cue Cue) string {
	return filepath.Join(p.dir, string(cue)+".mp3")
}

func (p *CommandPlayer) Play(ctx context.Context, cue Cue) error {
	path := p.Path(cue)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	args := append(append([]string(nil), p.command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("play %s: %w (%s)", cue, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NopPlayer discards cues.
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, Cue) error { return nil }
