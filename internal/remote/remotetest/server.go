// Package remotetest provides an in-process fake orchestration service
// for tests. It speaks the real API envelope over real HTTP, issues
// working signed upload URLs backed by an in-memory blob store, and
// completes executions immediately.
package remotetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/flowctl/pkg/workflow"
)

// Server is a fake orchestration service.
type Server struct {
	mu sync.Mutex

	ts *httptest.Server

	// Blobs holds uploaded objects keyed by their native URL.
	Blobs map[string][]byte
	// Workflows holds registered workflows keyed by ID.
	Workflows map[string]RegisteredWorkflow
	// Executions holds created executions keyed by name.
	Executions map[string]workflow.Execution
	// UploadLocations counts issued upload locations.
	UploadLocations int

	// ExecutionPhase is the terminal phase assigned to new executions.
	ExecutionPhase workflow.ExecutionPhase
	// ExecutionOutputs is attached to completed executions.
	ExecutionOutputs map[string]any
}

// RegisteredWorkflow is a registration recorded by the fake service.
type RegisteredWorkflow struct {
	ID      string                      `json:"id"`
	Name    string                      `json:"name"`
	Version string                      `json:"version"`
	Inputs  map[string]workflow.TypeTag `json:"inputs"`
	Images  workflow.ImageConfig        `json:"images"`
	Fast    workflow.FastSettings       `json:"fast"`
}

// New starts a fake service. Callers own the returned server and must
// Close it (or register Close with t.Cleanup).
func New() *Server {
	s := &Server{
		Blobs:          make(map[string][]byte),
		Workflows:      make(map[string]RegisteredWorkflow),
		Executions:     make(map[string]workflow.Execution),
		ExecutionPhase: workflow.PhaseSucceeded,
	}

	r := chi.NewRouter()
	r.Post("/api/v1/dataproxy/upload-locations", s.handleUploadLocation)
	r.Put("/blobs/*", s.handlePutBlob)
	r.Post("/api/v1/workflows/", s.handleRegister)
	r.Post("/api/v1/executions/", s.handleCreateExecution)
	r.Get("/api/v1/executions/{name}", s.handleGetExecution)

	s.ts = httptest.NewServer(r)
	return s
}

// URL returns the fake service's base URL.
func (s *Server) URL() string {
	return s.ts.URL
}

// Close shuts the fake service down.
func (s *Server) Close() {
	s.ts.Close()
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "success",
		"request_id": "req_" + uuid.New().String()[:8],
		"data":       data,
	})
}

func writeError(w http.ResponseWriter, status int, code workflow.ErrorCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "error",
		"request_id": "req_" + uuid.New().String()[:8],
		"error":      &workflow.APIError{Code: code, Message: msg},
	})
}

func (s *Server) handleUploadLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Project string `json:"project"`
		Domain  string `json:"domain"`
		Suffix  string `json:"suffix"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, err.Error())
		return
	}
	if req.Project == "" || req.Domain == "" {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, "project and domain are required")
		return
	}

	s.mu.Lock()
	s.UploadLocations++
	key := fmt.Sprintf("%s/%s/%s-%s", req.Project, req.Domain, uuid.New().String()[:8], req.Suffix)
	s.mu.Unlock()

	writeData(w, http.StatusCreated, workflow.UploadLocation{
		NativeURL: "mem://" + key,
		SignedURL: s.ts.URL + "/blobs/" + key,
	})
}

func (s *Server) handlePutBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, err.Error())
		return
	}

	s.mu.Lock()
	s.Blobs["mem://"+key] = data
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisteredWorkflow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, err.Error())
		return
	}
	if req.Name == "" || req.Version == "" {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, "name and version are required")
		return
	}

	req.ID = "wf_" + uuid.New().String()

	s.mu.Lock()
	s.Workflows[req.ID] = req
	s.mu.Unlock()

	writeData(w, http.StatusCreated, workflow.Registered{
		ID:      req.ID,
		Name:    req.Name,
		Version: req.Version,
	})
}

func (s *Server) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkflowID string         `json:"workflow_id"`
		Inputs     map[string]any `json:"inputs"`
		Project    string         `json:"project"`
		Domain     string         `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, workflow.ErrValidation, err.Error())
		return
	}

	s.mu.Lock()
	wf, ok := s.Workflows[req.WorkflowID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, workflow.ErrNotFound,
			fmt.Sprintf("workflow '%s' not found", req.WorkflowID))
		return
	}

	exec := workflow.Execution{
		Name:      "exec_" + uuid.New().String()[:8],
		Workflow:  wf.Name,
		Version:   wf.Version,
		Project:   req.Project,
		Domain:    req.Domain,
		Phase:     s.ExecutionPhase,
		Outputs:   s.ExecutionOutputs,
		CreatedAt: time.Now().UTC(),
	}
	s.Executions[exec.Name] = exec
	s.mu.Unlock()

	writeData(w, http.StatusCreated, exec)
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	exec, ok := s.Executions[name]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, workflow.ErrNotFound,
			fmt.Sprintf("execution '%s' not found", name))
		return
	}
	writeData(w, http.StatusOK, exec)
}
