package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
)

// ClaimsCache is the subset of cache.Store used to remember verified tokens.
type ClaimsCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedVerifier remembers successful verifications for up to ttl, never past
// the token's own expiry. Failed verifications are not cached.
type CachedVerifier struct {
	next  Verifier
	cache ClaimsCache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedVerifier wraps next with cache.
func NewCachedVerifier(next Verifier, cache ClaimsCache, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{next: next, cache: cache, ttl: ttl, now: time.Now}
}

func (v *CachedVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	key := tokenKey(raw)

	var hit Claims
	if v.cache.Get(ctx, key, &hit) && v.now().Before(hit.ExpiresAt) {
		metrics.CacheHits.WithLabelValues("tokens").Inc()
		return &hit, nil
	}
	metrics.CacheMisses.WithLabelValues("tokens").Inc()

	claims, err := v.next.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	ttl := v.ttl
	if !claims.ExpiresAt.IsZero() {
		if left := claims.ExpiresAt.Sub(v.now()); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		_ = v.cache.Set(ctx, key, claims, ttl)
	}
	return claims, nil
}

func tokenKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "token:" + hex.EncodeToString(sum[:])
}
