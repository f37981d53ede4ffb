package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

func fastConfig(retries uint64) Config {
	return Config{
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      1.5,
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.NewNop(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastConfig(3))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_AllAttemptsExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.NewNop(), "test", func() error {
		calls++
		return errors.New("persistent")
	}, fastConfig(2))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (maxRetries+1), got %d", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("unauthorized")
	calls := 0
	err := Do(context.Background(), logger.NewNop(), "test", func() error {
		calls++
		return Permanent(sentinel)
	}, fastConfig(5))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, logger.NewNop(), "test", func() error {
		calls++
		return errors.New("fail")
	}, fastConfig(5))
	if err == nil {
		t.Fatal("expected an error with a cancelled context")
	}
	if calls > 1 {
		t.Errorf("expected at most 1 call, got %d", calls)
	}
}
