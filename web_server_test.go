package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Readm/cluster_map/scene"
	"github.com/Readm/cluster_map/visual"
)

func testFrame(seq uint64) *visual.Frame {
	return &visual.Frame{
		Seq:    seq,
		Width:  100,
		Height: 100,
		Nodes: []scene.NodeSnapshot{{
			ID:    "coordinator",
			Kind:  scene.KindCircle,
			Class: "coordinator",
			Attrs: scene.Attrs{"cx": 50.0, "cy": 50.0, "r": 20.0},
		}},
		Workers: []visual.WorkerState{{ID: "w1"}},
		Stats:   visual.Stats{Workers: 1},
	}
}

func TestWebServer_FrameEndpoint(t *testing.T) {
	server := NewWebServer("127.0.0.1:0", nil, nil, nil)
	router := NewRouter(server)

	req := httptest.NewRequest("GET", "/api/frame", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	server.Publish(testFrame(10))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/frame", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var result visual.Frame
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, uint64(10), result.Seq)
	assert.Len(t, result.Nodes, 1)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/frame", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWebServer_SVGEndpoint(t *testing.T) {
	server := NewWebServer("127.0.0.1:0", nil, nil, nil)
	router := NewRouter(server)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/scene.svg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	server.Publish(testFrame(1))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/scene.svg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `<circle id="coordinator" class="coordinator" cx="50%" cy="50%" r="20"/>`)
}

func TestWebServer_WorkersEndpoint(t *testing.T) {
	server := NewWebServer("127.0.0.1:0", nil, nil, nil)
	router := NewRouter(server)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/workers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	server.Publish(testFrame(1))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/workers", nil))
	assert.JSONEq(t, `[{"id":"w1","index":0,"angle":0,"transfers":0}]`, w.Body.String())
}

func TestWebServer_EventsEndpoint(t *testing.T) {
	var got []visual.Event
	inject := func(_ context.Context, events []visual.Event) error {
		got = append(got, events...)
		return nil
	}
	router := NewRouter(NewWebServer("127.0.0.1:0", inject, nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/events",
		strings.NewReader(`{"name":"worker_join","id":"w1"}`)))
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"accepted":1}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/events",
		strings.NewReader(` [{"name":"start_swap","id":"w1"},{"name":"end_swap","id":"w1"}]`)))
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, []visual.Event{
		{Name: visual.EventWorkerJoin, ID: "w1"},
		{Name: visual.EventStartSwap, ID: "w1"},
		{Name: visual.EventEndSwap, ID: "w1"},
	}, got)

	for _, body := range []string{``, `{"id":"w1"}`, `[{"name":"ping"},{}]`, `nope`} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/events", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Len(t, got, 3)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWebServer_EventsDisabled(t *testing.T) {
	router := NewRouter(NewWebServer("127.0.0.1:0", nil, nil, nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/events", strings.NewReader(`{"name":"ping"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebServer_HealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("clustermap_workers 1\n"))
	})
	router := NewRouter(NewWebServer("127.0.0.1:0", nil, metrics, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, w.Body.String(), "clustermap_workers")
}

func TestWebServer_WebsocketPushesFrames(t *testing.T) {
	counts := make(chan int, 16)
	server := NewWebServer("127.0.0.1:0", nil, nil, func(n int) { counts <- n })
	server.latestFrame = testFrame(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server.ctx = ctx
	go func() { _ = server.hub.run(ctx) }()

	ts := httptest.NewServer(NewRouter(server))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var frame visual.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, uint64(1), frame.Seq)

	waitForCount(t, counts, 1)
	server.Publish(testFrame(2))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, uint64(2), frame.Seq)
}

func waitForCount(t *testing.T, counts <-chan int, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-counts:
			if n == want {
				return
			}
		case <-deadline:
			t.Fatalf("hub never reached %d clients", want)
		}
	}
}
