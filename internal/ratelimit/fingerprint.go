package ratelimit

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FingerprintLimiter buckets submissions by a fingerprint derived from the
// user-agent string. The key is spoofable and collision-prone; it bounds
// accidental floods, it does not identify clients.
type FingerprintLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	limit   int           // Max submissions per window
	window  time.Duration // Fixed window from first increment
	logger  *logrus.Logger
	now     func() time.Time
}

type bucket struct {
	mu        sync.Mutex
	count     int
	firstSeen time.Time
}

// NewFingerprintLimiter creates a limiter allowing limit submissions per
// fingerprint per window.
func NewFingerprintLimiter(limit int, window time.Duration, logger *logrus.Logger) *FingerprintLimiter {
	return &FingerprintLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Fingerprint derives the bucket key from a user-agent string: the first 20
// hex characters of its MD5 digest. Empty user agents share one bucket.
func Fingerprint(userAgent string) string {
	if userAgent == "" {
		userAgent = "unknown"
	}
	sum := md5.Sum([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:20]
}

// Allow checks the counter for the user agent's fingerprint and records the
// submission when under the ceiling. The read-increment-write runs under the
// bucket mutex, so concurrent requests from one fingerprint cannot under-count.
func (l *FingerprintLimiter) Allow(userAgent string) bool {
	key := Fingerprint(userAgent)

	l.mu.Lock()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	if b.firstSeen.IsZero() || now.Sub(b.firstSeen) > l.window {
		b.count = 0
		b.firstSeen = now
	}

	if b.count >= l.limit {
		l.logger.WithFields(logrus.Fields{
			"fingerprint": key,
			"count":       b.count,
			"window":      l.window.String(),
		}).Warn("Submission rate limit exceeded")
		return false
	}

	b.count++
	return true
}

// Sweep removes buckets whose window has fully elapsed. Run periodically by
// the scheduler.
func (l *FingerprintLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		b.mu.Lock()
		expired := now.Sub(b.firstSeen) > l.window
		b.mu.Unlock()
		if expired {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stats returns current limiter statistics.
func (l *FingerprintLimiter) Stats() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"total_fingerprints": len(l.buckets),
		"limit":              l.limit,
		"window":             l.window.String(),
	}
}
