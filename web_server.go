package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/transport"
	"github.com/Readm/cluster_map/visual"
)

const (
	maxEventBody    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// InjectFunc dispatches events on the controller's goroutine and waits for them.
type InjectFunc func(ctx context.Context, events []visual.Event) error

// WebServer serves frames to browsers and accepts injected events.
type WebServer struct {
	mu          sync.RWMutex
	latestFrame *visual.Frame
	hub         *wsHub
	inject      InjectFunc
	metrics     http.Handler
	server      *http.Server
	ctx         context.Context
}

// NewWebServer creates a new web server instance. A nil inject disables POST /api/events.
func NewWebServer(addr string, inject InjectFunc, metrics http.Handler, onClients func(int)) *WebServer {
	ws := &WebServer{
		hub:     newHub(onClients),
		inject:  inject,
		metrics: metrics,
		ctx:     context.Background(),
	}
	ws.server = &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ws),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

// Run serves until ctx is done, then shuts down gracefully.
func (ws *WebServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ws.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", ws.server.Addr)
	}
	return ws.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (ws *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	ws.mu.Lock()
	ws.ctx = ctx
	ws.mu.Unlock()

	hubDone := make(chan error, 1)
	go func() { hubDone <- ws.hub.run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- ws.server.Serve(ln) }()
	GetLogger().Infof("frame server listening on http://%s", ln.Addr())

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "frame server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down frame server")
	}
	<-hubDone
	return nil
}

// Publish implements visual.FramePublisher.
func (ws *WebServer) Publish(frame *visual.Frame) {
	ws.mu.Lock()
	ws.latestFrame = frame
	ws.mu.Unlock()
	ws.hub.broadcastFrame(frame)
}

func (ws *WebServer) latest() *visual.Frame {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.latestFrame
}

func (ws *WebServer) baseContext() context.Context {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.ctx
}

func (ws *WebServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame := ws.latest()
	if frame == nil {
		http.Error(w, "No frame available", http.StatusNotFound)
		return
	}
	writeJSON(w, frame)
}

func (ws *WebServer) handleSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	frame := ws.latest()
	if frame == nil {
		http.Error(w, "No frame available", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := frame.WriteSVG(&buf); err != nil {
		http.Error(w, "Failed to render scene", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

func (ws *WebServer) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	workers := []visual.WorkerState{}
	if frame := ws.latest(); frame != nil && frame.Workers != nil {
		workers = frame.Workers
	}
	writeJSON(w, workers)
}

type injectResponse struct {
	Accepted int `json:"accepted"`
}

func (ws *WebServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ws.inject == nil {
		http.Error(w, "Event injection disabled", http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	events, err := decodeEvents(body)
	if err != nil {
		http.Error(w, "Invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := ws.inject(r.Context(), events); err != nil {
		http.Error(w, "Event loop unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(injectResponse{Accepted: len(events)})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (ws *WebServer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws.hub.handle(ws.baseContext(), ws.latest(), w, r)
}

// decodeEvents accepts one event object or an array of them.
func decodeEvents(body []byte) ([]visual.Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] != '[' {
		ev, err := transport.Decode(body)
		if err != nil {
			return nil, err
		}
		return []visual.Event{ev}, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, errors.Wrap(err, "decoding event list")
	}
	events := make([]visual.Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := transport.Decode(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		events = append(events, ev)
	}
	return events, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
