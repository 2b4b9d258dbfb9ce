package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/argo-mcp/argo/internal/app"
	"github.com/argo-mcp/argo/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "argo.db")
	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(a.Stop)
	return NewServer(a)
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/tools", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tools) < 3 {
		t.Errorf("tools = %d, want at least the 3 sample tools", len(body.Tools))
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var h healthResponse
	if err := json.NewDecoder(w.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "UP" || !h.Initialised {
		t.Errorf("h = %+v", h)
	}
}

func TestHandleRPCToolsCall(t *testing.T) {
	s := newTestServer(t)
	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}},"id":1}`
	req := httptest.NewRequest(http.MethodPost, "/v1", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestHandleRPCUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	body := `{"jsonrpc":"2.0","method":"bogus","id":1}`
	req := httptest.NewRequest(http.MethodPost, "/v1", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleSubmitAndGetTask(t *testing.T) {
	s := newTestServer(t)

	submitBody := `{"taskType":"browser_navigate","query":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(submitBody))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %s", w.Code, w.Body.String())
	}

	var submitResp struct {
		TaskID string `json:"taskId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&submitResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if submitResp.TaskID == "" {
		t.Fatal("expected a taskId")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/tasks/"+submitResp.TaskID, nil)
	getW := httptest.NewRecorder()
	s.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", getW.Code, getW.Body.String())
	}

	var view taskView
	if err := json.NewDecoder(getW.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.TaskID != submitResp.TaskID {
		t.Errorf("taskId = %q, want %q", view.TaskID, submitResp.TaskID)
	}
}

func TestHandleGetTaskNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/tasks/no-such-task", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
