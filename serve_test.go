package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Readm/cluster_map/plugins/instrumentation"
	"github.com/Readm/cluster_map/visual"
)

// schedulerStub accepts one event stream client and sends it a fixed script.
func schedulerStub(t *testing.T, script ...visual.Event) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eventstream" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var hello visual.Event
		if err := conn.ReadJSON(&hello); err != nil || hello.Name != visual.EventPing {
			return
		}
		for _, ev := range script {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServiceFollowsEventStream(t *testing.T) {
	sched := schedulerStub(t,
		visual.Event{Name: visual.EventWorkerJoin, ID: "w1"},
		visual.Event{Name: visual.EventWorkerJoin, ID: "w2"},
		visual.Event{Name: visual.EventStartTransfer, StartWorker: "w1", EndWorker: "w2"},
	)

	config := DefaultConfig()
	config.Source.URL = sched.URL
	config.HTTP.Listen = "127.0.0.1:0"
	config.Layout.Insert = "append"
	config.Animation.FrameInterval = Duration(10 * time.Millisecond)
	config.Record.Path = filepath.Join(t.TempDir(), "events.jsonl")
	config.Snapshot.Path = filepath.Join(t.TempDir(), "map.svg")
	config.Snapshot.Every = 1

	s, err := newService(config)
	require.NoError(t, err)
	require.Equal(t, 2, s.pump.Publishers(), "web and svg snapshot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()

	var stats visual.Stats
	var workers []string
	require.Eventually(t, func() bool {
		err := s.loop.Do(ctx, func() {
			stats = s.controller.Stats()
			workers = s.controller.Workers()
		})
		return err == nil && stats.Workers == 2 && stats.Transfers == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"w1", "w2"}, workers)

	require.NoError(t, s.inject(ctx, []visual.Event{{Name: visual.EventReset}}))
	require.NoError(t, s.loop.Do(ctx, func() { stats = s.controller.Stats() }))
	assert.Equal(t, visual.Stats{Workers: 2}, stats)

	require.Eventually(t, func() bool {
		f := s.web.latest()
		return f != nil && f.Stats.Workers == 2 && len(f.Transfers) == 0
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(config.Snapshot.Path)
		return err == nil && strings.Count(string(data), `class="worker"`) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("service did not stop")
	}

	f, err := os.Open(config.Record.Path)
	require.NoError(t, err)
	defer f.Close()
	entries, err := instrumentation.ReadEntries(f)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, visual.EventStartTransfer, entries[2].Event.Name)
	assert.Equal(t, visual.EventReset, entries[3].Event.Name)
}

func TestNewServiceRejectsUnknownPlugin(t *testing.T) {
	config := DefaultConfig()
	config.Plugins = []string{"visualization/desktop"}
	_, err := newService(config)
	assert.Error(t, err)
}
