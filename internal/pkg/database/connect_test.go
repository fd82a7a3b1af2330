package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitReadyRetriesUntilUp(t *testing.T) {
	old := pingBackoff
	pingBackoff = func(int) time.Duration { return 0 }
	defer func() { pingBackoff = old }()

	calls := 0
	err := waitReady("test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 pings, got %d", calls)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	old := pingBackoff
	pingBackoff = func(int) time.Duration { return 0 }
	defer func() { pingBackoff = old }()

	down := errors.New("connection refused")
	calls := 0
	err := waitReady("test", func(ctx context.Context) error {
		calls++
		return down
	})
	if !errors.Is(err, down) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != pingAttempts {
		t.Fatalf("expected %d pings, got %d", pingAttempts, calls)
	}
}
