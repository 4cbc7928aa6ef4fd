package boarddto

import "time"

// Snapshot is the client-facing view of a game session.
// Board is 64 characters, rank 8 first.
type Snapshot struct {
	SessionID     string    `json:"sessionId"`
	Generation    uint64    `json:"generation"`
	Board         string    `json:"board"`
	Side          string    `json:"side"`
	Game          string    `json:"game"`
	LastGame      string    `json:"lastGame,omitempty"`
	Status        string    `json:"status"`
	Phase         string    `json:"phase"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to,omitempty"`
	MoveInFlight  bool      `json:"moveInFlight"`
	ReplyInFlight bool      `json:"replyInFlight"`
	ReplyFailed   bool      `json:"replyFailed,omitempty"`
	Settling      bool      `json:"settling,omitempty"`
	Moves         []string  `json:"moves"`
	LastMove      string    `json:"lastMove,omitempty"`
	Cue           string    `json:"cue,omitempty"`
	Notice        *Notice   `json:"notice,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Notice struct {
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}
