package remote

import (
	"bytes"
	"fmt"
	"strconv"
)

// flexBool accepts true/false, 0/1 and their quoted forms. The reference
// engine server writes isCheck as a bare 0 or 1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch raw {
	case "", "null":
		*b = false
		return nil
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		*b = flexBool(v)
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		*b = n != 0
		return nil
	}
	return fmt.Errorf("invalid boolean %s", data)
}

type moveResponse struct {
	Board   string   `json:"board"`
	IsCheck flexBool `json:"isCheck"`
	Error   string   `json:"error,omitempty"`
}

type genmoveResponse struct {
	Move    string   `json:"move"`
	Board   string   `json:"board"`
	IsCheck flexBool `json:"isCheck"`
	Error   string   `json:"error,omitempty"`
}

type gameResponse struct {
	GameState string `json:"gameState"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Position string `json:"position"`
}

type analyzeResponse struct {
	Results string `json:"results"`
}
