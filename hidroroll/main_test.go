package main

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/hidroroll/pkg/board"
	"github.com/itohio/hidroroll/pkg/config"
	"github.com/itohio/hidroroll/pkg/logging"
)

// patchRecorder counts the status updates the agent sends.
type patchRecorder struct {
	mu      sync.Mutex
	paths   []string
	methods []string
}

func (p *patchRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	p.methods = append(p.methods, r.Method)
	p.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (p *patchRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.paths)
}

func testConfig(t *testing.T, srvURL string) *config.Config {
	t.Helper()
	u, err := url.Parse(srvURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Collector.Host = host
	cfg.Collector.Port = port
	cfg.Collector.Timeout = time.Second
	cfg.Collector.Interval = 20 * time.Millisecond
	cfg.Sampling.AnalogInterval = 10 * time.Millisecond
	cfg.Sampling.AnalogSamples = 8
	return cfg
}

func TestRun_MockGracefulShutdown(t *testing.T) {
	rec := &patchRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	dev := board.NewMock(&cfg.Mock)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	cal, err := board.Characterize(cfg.Calibration.Unit, board.Attenuation(cfg.Calibration.Attenuation), cfg.Calibration.Width, cfg.Calibration.VRef)
	require.NoError(t, err)

	logger := logging.NewStdLogger(log.New(io.Discard, "", 0), false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, dev, cal, logger)
	}()

	// Listing request plus a few status updates.
	require.Eventually(t, func() bool { return rec.count() >= 4 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, http.MethodGet, rec.methods[0])
	assert.Equal(t, "/api/equipments", rec.paths[0])
	for i := 1; i < len(rec.paths); i++ {
		assert.Equal(t, http.MethodPatch, rec.methods[i])
		assert.Equal(t, "/api/equipments/4200", rec.paths[i])
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	rec := &patchRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Collector.SkipListing = true

	dev := board.NewMock(&cfg.Mock)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	cal, err := board.Characterize(1, 11, 12, 1100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = run(ctx, cfg, dev, cal, logging.NewStdLogger(log.New(io.Discard, "", 0), false))
	assert.NoError(t, err)
	assert.Zero(t, rec.count())
}
