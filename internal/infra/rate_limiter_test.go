package infra

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_TryAcquire(t *testing.T) {
	rl := NewRateLimiter(2, 10)

	if !rl.TryAcquire() {
		t.Error("expected first TryAcquire to succeed")
	}
	if !rl.TryAcquire() {
		t.Error("expected second TryAcquire to succeed")
	}

	// Burst exhausted.
	if rl.TryAcquire() {
		t.Error("expected third TryAcquire to fail")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(1, 10)

	if !rl.TryAcquire() {
		t.Error("expected first TryAcquire to succeed")
	}
	if rl.TryAcquire() {
		t.Error("expected immediate TryAcquire to fail")
	}

	// 10/s refill means a token is back after 100ms.
	time.Sleep(120 * time.Millisecond)

	if !rl.TryAcquire() {
		t.Error("expected TryAcquire to succeed after refill")
	}
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(1, 100)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// Second Wait must block roughly one refill interval (10ms).
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("expected Wait to block, elapsed=%v", elapsed)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(1, 0.001) // effectively never refills
	if !rl.TryAcquire() {
		t.Fatal("expected initial token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Error("expected context error from cancelled Wait")
	}
}

func TestKucoinLimiters_Initialized(t *testing.T) {
	public := GetKucoinPublicLimiter()
	private := GetKucoinPrivateLimiter()

	if public == nil || private == nil {
		t.Fatal("limiters not initialized")
	}
	if public == private {
		t.Error("public and private limiters should be separate buckets")
	}
}
