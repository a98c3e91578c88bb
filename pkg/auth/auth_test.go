package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/parcelhub/pkg/auth"
)

func TestSecretVerifierRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken("s3cret", "uid-1", "Owner@X.com", time.Hour)
	require.NoError(t, err)

	claims, err := auth.NewSecretVerifier("s3cret", "", "").Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "owner@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestSecretVerifierRejects(t *testing.T) {
	v := auth.NewSecretVerifier("s3cret", "", "")

	wrong, err := auth.GenerateToken("other", "uid-1", "a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), wrong)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.GenerateToken("s3cret", "uid-1", "a@x.com", -time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	noEmail, err := auth.GenerateToken("s3cret", "uid-1", "", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noEmail)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSecretVerifierChecksAudience(t *testing.T) {
	token, err := auth.GenerateToken("s3cret", "uid-1", "a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = auth.NewSecretVerifier("s3cret", "", "parcelhub").Verify(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// ─── Key set ──────────────────────────────────────────────────────────────────

func publicPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"email":   email,
		"user_id": "idp-uid",
		"iss":     "https://idp.example",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

type keyServer struct {
	mu     sync.Mutex
	keys   map[string]string
	status int
	hits   atomic.Int32
}

func (s *keyServer) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.hits.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	_ = json.NewEncoder(w).Encode(s.keys)
}

func TestKeySetVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	ks := &keyServer{keys: map[string]string{"k1": publicPEM(t, key)}}
	srv := httptest.NewServer(ks)
	defer srv.Close()

	v := auth.NewKeySetVerifier(srv.URL, "https://idp.example", "")

	claims, err := v.Verify(context.Background(), signRS256(t, key, "k1", "Rider@X.com"))
	require.NoError(t, err)
	assert.Equal(t, "rider@x.com", claims.Email)
	assert.Equal(t, "idp-uid", claims.UID)

	// second verification is served from the fetched keys
	_, err = v.Verify(context.Background(), signRS256(t, key, "k1", "a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), ks.hits.Load())

	// unknown kid right after a fetch is rejected without refetching
	_, err = v.Verify(context.Background(), signRS256(t, key, "k9", "a@x.com"))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.Equal(t, int32(1), ks.hits.Load())
}

func TestKeySetVerifierWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(&keyServer{keys: map[string]string{"key": publicPEM(t, key)}})
	defer srv.Close()

	_, err = auth.NewKeySetVerifier(srv.URL, "", "").Verify(context.Background(), signRS256(t, other, "any", "a@x.com"))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestKeySetVerifierUnavailable(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(&keyServer{status: http.StatusBadGateway})
	defer srv.Close()

	_, err = auth.NewKeySetVerifier(srv.URL, "", "").Verify(context.Background(), signRS256(t, key, "k1", "a@x.com"))
	assert.ErrorIs(t, err, auth.ErrKeysUnavailable)
	assert.NotErrorIs(t, err, auth.ErrInvalidToken)
}

// ─── Cache ────────────────────────────────────────────────────────────────────

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	return ok && json.Unmarshal(raw, dest) == nil
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

type countingVerifier struct {
	calls int
	exp   time.Time
	err   error
}

func (v *countingVerifier) Verify(context.Context, string) (*auth.Claims, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return &auth.Claims{UID: "u", Email: "a@x.com", ExpiresAt: v.exp}, nil
}

func TestCachedVerifier(t *testing.T) {
	next := &countingVerifier{exp: time.Now().Add(2 * time.Minute)}
	cache := newMapCache()
	v := auth.NewCachedVerifier(next, cache, 5*time.Minute)

	for i := 0; i < 3; i++ {
		claims, err := v.Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claims.Email)
	}
	assert.Equal(t, 1, next.calls)

	// ttl never outlives the token
	for _, ttl := range cache.ttls {
		assert.LessOrEqual(t, ttl, 2*time.Minute)
	}
}

func TestCachedVerifierSkipsFailures(t *testing.T) {
	next := &countingVerifier{err: auth.ErrInvalidToken}
	cache := newMapCache()
	v := auth.NewCachedVerifier(next, cache, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := v.Verify(context.Background(), "bad")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.data)
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, auth.FromCtx(ctx))
	assert.Empty(t, auth.EmailFromCtx(ctx))

	ctx = auth.WithClaims(ctx, &auth.Claims{Email: "a@x.com"})
	assert.Equal(t, "a@x.com", auth.EmailFromCtx(ctx))
}
