package gameover

import (
	"fmt"
	"strings"
)

type Status int

const (
	None Status = iota
	Checkmate
	Draw
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "active"
	}
}

func (s Status) Terminal() bool { return s == Checkmate || s == Draw }

// Parse maps the wire gameState values. Stalemate counts as a draw.
func Parse(state string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "active", "none", "":
		return None, nil
	case "checkmate":
		return Checkmate, nil
	case "draw", "stalemate":
		return Draw, nil
	}
	return None, fmt.Errorf("unknown game state %q", state)
}

// Detector holds the per-game terminal status. Once terminal it only changes
// through Reset. It is not synchronised; the owner guards it with its own lock.
type Detector struct {
	status Status
}

// Observe records s and reports whether this call moved the game out of None.
func (d *Detector) Observe(s Status) bool {
	if d.status != None || !s.Terminal() {
		return false
	}
	d.status = s
	return true
}

func (d *Detector) Status() Status { return d.status }

func (d *Detector) Over() bool { return d.status.Terminal() }

func (d *Detector) Reset() { d.status = None }
