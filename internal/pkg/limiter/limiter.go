/*
Package limiter provides per-key rate limiting based on token buckets.

The bridge keys buckets by the sending user's name so one chatty session cannot
flood the shared message log. A background sweep drops buckets that have
refilled completely.
*/
package limiter

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"portalsync/internal/pkg/logx"
)

// sweepInterval is how often idle buckets are removed.
const sweepInterval = 3 * time.Minute

// KeyedLimiter holds one rate.Limiter per key.
type KeyedLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second.
	r rate.Limit

	// b is the bucket size.
	b int
}

// NewKeyedLimiter creates a limiter allowing r events per second with burst b per key.
// The idle sweep runs until ctx is cancelled.
func NewKeyedLimiter(ctx context.Context, r rate.Limit, b int) *KeyedLimiter {
	k := &KeyedLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go k.sweep(ctx)

	return k
}

// normalizeKey folds case so "Ana" and "ANA" share a bucket, matching profile identity.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get returns the limiter for key, creating it on first use.
func (k *KeyedLimiter) Get(key string) *rate.Limiter {
	key = normalizeKey(key)

	k.mu.RLock()
	lim, exists := k.limits[key]
	k.mu.RUnlock()

	if exists {
		return lim
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	lim, exists = k.limits[key]
	if !exists {
		lim = rate.NewLimiter(k.r, k.b)
		k.limits[key] = lim
	}

	return lim
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.Get(key).Allow()
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.limits)
}

// prune removes every bucket that is full at now and returns how many were dropped.
func (k *KeyedLimiter) prune(now time.Time) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for key, lim := range k.limits {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(k.limits, key)
			removed++
		}
	}

	return removed
}

func (k *KeyedLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := k.prune(now)
			if removed > 0 {
				logx.Debug("Send limiter sweep removed idle buckets", "removed", removed, "remaining", k.Len())
			}
		}
	}
}
