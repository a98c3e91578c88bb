package server_test

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/parcelhub/config"
	"github.com/shashiranjanraj/parcelhub/internal/kernel"
	"github.com/shashiranjanraj/parcelhub/internal/server"
	"github.com/shashiranjanraj/parcelhub/pkg/auth"
)

const secret = "server-test-secret"

func bootMemory(t *testing.T) *kernel.App {
	t.Helper()
	config.Set("AUTH_SECRET", secret)
	config.Set("AUTH_KEYS_URL", "")
	config.Set("REDIS_ADDR", "127.0.0.1:1")

	app, err := kernel.Boot(context.Background(), kernel.DriverMemory)
	require.NoError(t, err)
	return app
}

func TestServeUntilCancelled(t *testing.T) {
	app := bootMemory(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln, app, 2*time.Second) }()

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := auth.GenerateToken(secret, "uid-1", "owner@x.com", time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, base+"/parcels", strings.NewReader(`{"receiver":"Bob"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(base + "/parcels")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(base + "/health")
	assert.Error(t, err)
}

func TestBootRejectsUnknownDriver(t *testing.T) {
	_, err := kernel.Boot(context.Background(), "sqlite")
	assert.Error(t, err)
}

func TestBootNeedsVerifier(t *testing.T) {
	config.Set("AUTH_SECRET", "")
	config.Set("AUTH_KEYS_URL", "")
	defer config.Set("AUTH_SECRET", secret)

	_, err := kernel.Boot(context.Background(), kernel.DriverMemory)
	assert.Error(t, err)
}
