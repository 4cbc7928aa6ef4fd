package boarddto

// Command types accepted from a front end.
const (
	CommandStart   = "start"
	CommandRematch = "rematch"
	CommandPick    = "pick"
	CommandDrag    = "drag"
	CommandDrop    = "drop"
	CommandMove    = "move"
	CommandRetry   = "retry"
	CommandState   = "state"
)

// Command is one user action. Squares are algebraic ("e2").
type Command struct {
	Type   string `json:"type"`
	Square string `json:"square,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Side   string `json:"side,omitempty"`
}

// Event types pushed to a front end.
const (
	EventSnapshot = "snapshot"
	EventCue      = "cue"
	EventError    = "error"
)

type Event struct {
	Type     string    `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Cue      string    `json:"cue,omitempty"`
	Error    *Notice   `json:"error,omitempty"`
}
