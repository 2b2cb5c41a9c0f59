package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"music-round/internal/config"
	"music-round/internal/jobs"
	"music-round/internal/trivia"
)

var testStart = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var testTracks = []trivia.Track{
	{ID: "t1", Artist: "Queen", Title: "Bohemian Rhapsody"},
	{ID: "t2", Artist: "ABBA", Title: "Dancing Queen"},
	{ID: "t3", Artist: "Nirvana", Title: "Come As You Are"},
	{ID: "t4", Artist: "Beyoncé", Title: "Halo"},
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// newTestApp wires a server to an in-memory engine driven by a manual clock.
func newTestApp(t *testing.T) (*Server, *httptest.Server, *jobs.ManualQueue) {
	t.Helper()
	queue := jobs.NewManualQueue(testStart)
	engine := trivia.NewEngine(trivia.Options{
		Jobs:   queue,
		Tracks: trivia.NewMemoryLibrary(testTracks),
		Now:    queue.Now,
		Rand:   func(int) int { return 0 },
	})
	queue.SetHandler(engine.HandleJob)
	srv := New(engine, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, queue
}
