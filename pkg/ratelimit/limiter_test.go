package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	tb := NewTokenBucket(5, 1.0)

	// Burst capacity allows 5 requests immediately
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be denied
	if tb.Allow() {
		t.Error("6th request should be denied")
	}

	// Wait for roughly one token to refill
	time.Sleep(1100 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Request after refill should be allowed")
	}
	if tb.Allow() {
		t.Error("Second request after single refill should be denied")
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	tb := NewTokenBucket(3, 1.0)

	for i := 0; i < 3; i++ {
		tb.Allow()
	}
	if tb.Allow() {
		t.Error("Bucket should be empty")
	}

	tb.Reset()
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("Request %d should be allowed after reset", i+1)
		}
	}
}

func TestLimiter_SeparateKeys(t *testing.T) {
	l := NewLimiter(2, 0.1, 0)

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Error("First key should get its full burst")
	}
	if l.Allow("10.0.0.1") {
		t.Error("First key should be exhausted")
	}

	// A different key has its own bucket
	if !l.Allow("10.0.0.2") {
		t.Error("Second key should be unaffected")
	}

	l.Reset("10.0.0.1")
	if !l.Allow("10.0.0.1") {
		t.Error("First key should be allowed after reset")
	}
}
