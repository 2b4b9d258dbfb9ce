// Package api implements the HTTP surface of the MCP tool-server runtime
//: tool discovery, the JSON-RPC dispatch endpoint, the legacy
// tools/call shim, health/metrics, and the task-executor REST surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/argo-mcp/argo/internal/app"
	"github.com/argo-mcp/argo/internal/logger"
)

// Server is the main HTTP API server, a thin stdlib http.ServeMux router
// over the wired App.
type Server struct {
	mux *http.ServeMux
	app *app.App
}

// NewServer creates a new API server with all routes registered.
func NewServer(a *app.App) *Server {
	s := &Server{mux: http.NewServeMux(), app: a}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /v1/tools", s.handleToolsList)
	s.mux.HandleFunc("POST /v1/tools/call", s.handleToolsCallLegacy)
	s.mux.HandleFunc("POST /v1", s.handleRPC)
	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /v1/events", s.handleEvents)

	s.mux.HandleFunc("POST /tasks", s.handleSubmitTask)
	s.mux.HandleFunc("POST /tasks/{taskId}/cancel", s.handleCancelTask)
	s.mux.HandleFunc("GET /tasks/{taskId}", s.handleGetTask)
	s.mux.HandleFunc("GET /tasks/{taskId}/progress", s.handleGetTaskProgress)
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("api: error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
