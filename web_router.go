package main

import "net/http"

// Router wires HTTP/WS handlers for the server.
type Router struct {
	mux *http.ServeMux
}

// NewRouter constructs router with provided handlers.
func NewRouter(server *WebServer) *Router {
	mux := http.NewServeMux()
	server.registerHandlers(mux)
	return &Router{mux: mux}
}

func (ws *WebServer) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/frame", ws.handleFrame)
	mux.HandleFunc("/api/workers", ws.handleWorkers)
	mux.HandleFunc("/api/events", ws.handleEvents)
	mux.HandleFunc("/scene.svg", ws.handleSVG)
	mux.HandleFunc("/ws", ws.handleWebsocket)
	mux.HandleFunc("/healthz", ws.handleHealth)
	if ws.metrics != nil {
		mux.Handle("/metrics", ws.metrics)
	}
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r == nil || r.mux == nil {
		http.NotFound(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}
