package rules

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	illegal := fmt.Errorf("apply: %w", &IllegalMoveError{Move: "e2e5", Reason: "Illegal move: e2e5"})
	if !errors.Is(illegal, ErrIllegalMove) {
		t.Fatalf("wrapped IllegalMoveError should match ErrIllegalMove")
	}
	if IsNetwork(illegal) {
		t.Fatalf("illegal move is not a network error")
	}

	netErr := fmt.Errorf("reply: %w", &NetworkError{Op: "genmove", Err: context.DeadlineExceeded})
	if !IsNetwork(netErr) {
		t.Fatalf("expected network error")
	}
	if !errors.Is(netErr, context.DeadlineExceeded) {
		t.Fatalf("NetworkError should unwrap to its cause")
	}
}
