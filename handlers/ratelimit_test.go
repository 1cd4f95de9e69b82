package handlers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	limiter := newRateLimiter()
	ip := "127.0.0.1"

	assert.True(t, limiter.Allow(ip), "allowed initially")

	for i := 0; i < maxAttempts-1; i++ {
		limiter.RecordFailure(ip)
	}
	assert.True(t, limiter.Allow(ip), "allowed below the threshold")

	limiter.RecordFailure(ip)
	assert.False(t, limiter.Allow(ip), "blocked at the threshold")
	assert.True(t, limiter.Allow("127.0.0.2"), "other addresses unaffected")

	limiter.Reset(ip)
	assert.True(t, limiter.Allow(ip), "allowed after reset")
}

func TestRateLimiterParallel(t *testing.T) {
	limiter := newRateLimiter()
	ip := "10.0.0.1"

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.RecordFailure(ip)
		}()
	}
	wg.Wait()

	assert.False(t, limiter.Allow(ip))
}

func TestRateLimiterExpiredBlock(t *testing.T) {
	limiter := newRateLimiter()
	ip := "10.0.0.2"
	limiter.blocked[ip] = time.Now().Add(-time.Second)
	limiter.attempts[ip] = &attemptData{count: maxAttempts, firstAttempt: time.Now().Add(-2 * windowDuration)}

	assert.True(t, limiter.Allow(ip))
	assert.NotContains(t, limiter.blocked, ip)
	assert.NotContains(t, limiter.attempts, ip)
}

func TestRateLimiterPrune(t *testing.T) {
	limiter := newRateLimiter()
	limiter.attempts["stale"] = &attemptData{count: 1, firstAttempt: time.Now().Add(-2 * windowDuration)}
	limiter.attempts["fresh"] = &attemptData{count: 1, firstAttempt: time.Now()}
	limiter.blocked["lapsed"] = time.Now().Add(-time.Minute)
	limiter.blocked["active"] = time.Now().Add(time.Minute)

	limiter.prune()

	assert.NotContains(t, limiter.attempts, "stale")
	assert.Contains(t, limiter.attempts, "fresh")
	assert.NotContains(t, limiter.blocked, "lapsed")
	assert.Contains(t, limiter.blocked, "active")
}
