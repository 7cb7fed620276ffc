package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Divyaanshvats/intern-management-system/internal/core/config"
)

func TestAddrs(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8000", Addr("0.0.0.0", 8000))
	assert.Equal(t, "http://127.0.0.1:8000", BaseURL("0.0.0.0", 8000))
	assert.Equal(t, "http://api.local:9000", BaseURL("api.local", 9000))
}

func TestFromConfig(t *testing.T) {
	srv := FromConfig(config.HTTP{Host: "localhost", Port: 8080, ReadTimeoutSec: 5, WriteTimeoutSec: 10, IdleTimeoutSec: 60}, http.NotFoundHandler())
	assert.Equal(t, "localhost:8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
	assert.Equal(t, time.Minute, srv.IdleTimeout)
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := BuildServer(addr, http.NotFoundHandler(), time.Second, time.Second, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, zap.NewNop(), time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := BuildServer(ln.Addr().String(), http.NotFoundHandler(), time.Second, time.Second, time.Second)
	err = Run(context.Background(), srv, zap.NewNop(), time.Second)
	assert.Error(t, err)
}
