package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/argo-mcp/argo/internal/executor"
	"github.com/argo-mcp/argo/internal/mcp"
	"github.com/argo-mcp/argo/internal/sse"
)

// --- Tool discovery ---

func (s *Server) handleToolsList(w http.ResponseWriter, r *http.Request) {
	if !s.app.Initialised() {
		writeError(w, http.StatusServiceUnavailable, "server not yet initialised")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.app.Registry.List()})
}

// --- Legacy tools/call shim ---

type toolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCallLegacy(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, `"name" is required`)
		return
	}

	result, callErr := s.app.Dispatcher.CallTool(r.Context(), req.Name, req.Arguments)
	if callErr != nil {
		writeJSON(w, callErr.HTTPStatus(), map[string]string{"error": callErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- JSON-RPC dispatch endpoint ---

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, parseErr := mcp.Parse(body)
	if parseErr != nil {
		resp := mcp.Response{JSONRPC: "2.0", Error: &mcp.RPCError{Code: parseErr.RPCCode(), Message: parseErr.Error()}}
		writeJSON(w, parseErr.HTTPStatus(), resp)
		return
	}

	resp := s.app.Dispatcher.Dispatch(r.Context(), req)
	writeJSON(w, mcp.HTTPStatusFor(resp), resp)
}

// --- Health / metrics ---

type healthResponse struct {
	Status               string `json:"status"`
	Initialised          bool   `json:"initialised"`
	InitializationTimeMs int64  `json:"initializationTimeMs"`
	ToolCount            int    `json:"toolCount"`
	Framework            string `json:"framework"`
	Version              string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "DOWN"
	if s.app.Initialised() {
		status = "UP"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:               status,
		Initialised:          s.app.Initialised(),
		InitializationTimeMs: s.app.InitializationTimeMs(),
		ToolCount:            s.app.Registry.Stats().ToolCount,
		Framework:            "argo-mcp",
		Version:              "0.1.0",
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.app.Registry.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"discoveryTimeMs":   s.app.InitializationTimeMs(),
		"toolCount":         stats.ToolCount,
		"handlerCount":      stats.HandlerCount,
		"cacheEnabled":      s.app.Config.CacheProvider != "none",
		"cacheProvider":     s.app.Config.CacheProvider,
		"defaultTimeoutMs":  s.app.Config.DefaultTimeoutMs,
		"workerParallelism": s.app.Config.WorkerParallelism,
		"startedAt":         s.app.StartedAt(),
	})
}

// --- Task executor REST surface ---

type submitTaskRequest struct {
	TaskType string                    `json:"taskType"`
	Query    string                    `json:"query"`
	Options  *submitTaskRequestOptions `json:"options,omitempty"`
}

type submitTaskRequestOptions struct {
	TimeoutSeconds int    `json:"timeoutSeconds"`
	MaxRetries     int    `json:"maxRetries"`
	RequesterID    string `json:"requesterId"`
}

// taskView is the JSON wire projection of executor.TaskExecution. The
// executor's own type carries no json tags deliberately — it is an internal
// record, not a wire type.
type taskView struct {
	TaskID                string   `json:"taskId"`
	TaskType              string   `json:"taskType"`
	OriginalQuery         string   `json:"originalQuery"`
	Status                string   `json:"status"`
	ProgressPercent       int      `json:"progressPercent"`
	ProgressMessage       string   `json:"progressMessage"`
	Screenshots           []string `json:"screenshots"`
	ExtractedResults      string   `json:"extractedResults,omitempty"`
	ErrorDetails          string   `json:"errorDetails,omitempty"`
	Created               string   `json:"created"`
	Updated               string   `json:"updated"`
	StartedAt             string   `json:"startedAt,omitempty"`
	CompletedAt           string   `json:"completedAt,omitempty"`
	RetryCount            int      `json:"retryCount"`
	MaxRetries            int      `json:"maxRetries"`
	TimeoutSeconds        int      `json:"timeoutSeconds"`
	ActualDurationSeconds float64  `json:"actualDurationSeconds,omitempty"`
	RequesterID           string   `json:"requesterId,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func toTaskView(t *executor.TaskExecution) taskView {
	v := taskView{
		TaskID:                t.TaskID,
		TaskType:              t.TaskType,
		OriginalQuery:         t.OriginalQuery,
		Status:                string(t.Status),
		ProgressPercent:       t.ProgressPercent,
		ProgressMessage:       t.ProgressMessage,
		Screenshots:           t.Screenshots,
		ExtractedResults:      t.ExtractedResults,
		ErrorDetails:          t.ErrorDetails,
		Created:               t.Created.Format(timeLayout),
		Updated:               t.Updated.Format(timeLayout),
		RetryCount:            t.RetryCount,
		MaxRetries:            t.MaxRetries,
		TimeoutSeconds:        t.TimeoutSeconds,
		ActualDurationSeconds: t.ActualDurationSeconds,
		RequesterID:           t.RequesterID,
	}
	if !t.StartedAt.IsZero() {
		v.StartedAt = t.StartedAt.Format(timeLayout)
	}
	if !t.CompletedAt.IsZero() {
		v.CompletedAt = t.CompletedAt.Format(timeLayout)
	}
	return v
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req submitTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TaskType == "" {
		writeError(w, http.StatusBadRequest, `"taskType" is required`)
		return
	}

	var opts executor.SubmitOptions
	if req.Options != nil {
		opts = executor.SubmitOptions{
			TimeoutSeconds: req.Options.TimeoutSeconds,
			MaxRetries:     req.Options.MaxRetries,
			RequesterID:    req.Options.RequesterID,
		}
	}

	taskID, err := s.app.Executor.Submit(r.Context(), req.TaskType, req.Query, opts)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"taskId": taskID})
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskId")
	if ok := s.app.Executor.Cancel(taskID); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no such task: %q", taskID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskId")
	task, ok := s.app.Executor.Get(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no such task: %q", taskID))
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(task))
}

func (s *Server) handleGetTaskProgress(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskId")
	task, ok := s.app.Executor.Get(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no such task: %q", taskID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"taskId":          task.TaskID,
		"status":          task.Status,
		"message":         task.ProgressMessage,
		"progressPercent": task.ProgressPercent,
		"screenshots":     task.Screenshots,
	})
}

// --- Server-Sent Events fan-out ---

// handleEvents subscribes the HTTP client to the "task:progress" topic and
// streams each executor.ProgressEvent as an SSE frame, the same
// broker-plus-SSE shape used elsewhere for session-progress streaming.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.app.Broker.Subscribe(executor.ProgressTopic)
	defer s.app.Broker.Unsubscribe(executor.ProgressTopic, ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			frame := sse.Event{Event: "task_progress", Data: string(payload)}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Event, frame.Data)
			flusher.Flush()
		}
	}
}
