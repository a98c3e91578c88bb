package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shashiranjanraj/parcelhub/pkg/breaker"
	kahttp "github.com/shashiranjanraj/parcelhub/pkg/http"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

const (
	keysMaxAge      = time.Hour
	keysMinInterval = 30 * time.Second
)

// KeySetVerifier verifies RS256 tokens against public keys published by the
// identity provider. The keys document is a JSON object mapping key id to a
// PEM public key or certificate; a single {"key": PEM} is also accepted and
// then serves every kid.
type KeySetVerifier struct {
	url     string
	opts    []jwt.ParserOption
	breaker *breaker.Breaker
	now     func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeySetVerifier returns a verifier fetching keys from url on demand.
func NewKeySetVerifier(url, issuer, audience string) *KeySetVerifier {
	return &KeySetVerifier{
		url:     url,
		opts:    parserOptions([]string{jwt.SigningMethodRS256.Alg()}, issuer, audience),
		breaker: breaker.New(breaker.IdentityKeys),
		now:     time.Now,
	}
}

func (v *KeySetVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	}, v.opts...)
	return finish(token, err)
}

// key returns the key for kid, refreshing the set when it is stale or when an
// unknown kid shows up (at most once per keysMinInterval).
func (v *KeySetVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, stale, age := v.lookup(kid)
	fetched := !v.fetchedAt.IsZero()
	v.mu.RUnlock()

	if k != nil && !stale {
		return k, nil
	}
	if k == nil && fetched && age < keysMinInterval {
		return nil, fmt.Errorf("auth: unknown key id %q", kid)
	}

	if err := v.refresh(ctx); err != nil {
		if k != nil {
			logger.WithCtx(ctx).Warn("auth: key refresh failed, using cached keys", "error", err)
			return k, nil
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, _, _ = v.lookup(kid); k == nil {
		return nil, fmt.Errorf("auth: unknown key id %q", kid)
	}
	return k, nil
}

// lookup must be called with mu held.
func (v *KeySetVerifier) lookup(kid string) (*rsa.PublicKey, bool, time.Duration) {
	age := v.now().Sub(v.fetchedAt)
	stale := age > keysMaxAge

	if k, ok := v.keys[kid]; ok {
		return k, stale, age
	}
	if k, ok := v.keys["key"]; ok {
		return k, stale, age
	}
	return nil, stale, age
}

func (v *KeySetVerifier) refresh(ctx context.Context) error {
	keys, err := breaker.Do(v.breaker, func() (map[string]*rsa.PublicKey, error) {
		return fetchKeys(ctx, v.url)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.mu.Unlock()
	return nil
}

func fetchKeys(ctx context.Context, url string) (map[string]*rsa.PublicKey, error) {
	resp, err := kahttp.Get(url).
		WithContext(ctx).
		Timeout(5*time.Second).
		Retry(2, 200*time.Millisecond).
		Send()
	if err != nil {
		return nil, err
	}
	if err := resp.Throw(); err != nil {
		return nil, err
	}

	var doc map[string]string
	if err := resp.JSON(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc))
	for kid, pem := range doc {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("auth: parse key %q: %w", kid, err)
		}
		keys[kid] = k
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("auth: key set at %s is empty", url)
	}
	return keys, nil
}
