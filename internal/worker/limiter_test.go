package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://localhost:5002/api/tasks/1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://other:5002/api/health"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_NilIsNoop(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background(), "http://localhost/api"); err != nil {
		t.Errorf("nil limiter should not fail: %v", err)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, "http://localhost/api"); err != nil {
			t.Fatalf("request %d was throttled with pacing disabled: %v", i, err)
		}
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	u := "http://localhost:5002/api/health"

	if err := limiter.Wait(context.Background(), u); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst of 1 is spent; the next token is a second away
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, u); err == nil {
		t.Errorf("expected second wait to be throttled")
	}

	// hosts are paced independently
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if err := limiter.Wait(ctx2, "http://localhost:5003/api/health"); err != nil {
		t.Errorf("expected other host to pass: %v", err)
	}
}
