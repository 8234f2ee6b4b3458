// Package remote is the HTTP client for the workflow-orchestration
// service: upload-location issuance, script-mode workflow registration,
// and execution triggering.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/me/flowctl/internal/scriptmode"
	"github.com/me/flowctl/internal/storage"
	"github.com/me/flowctl/pkg/workflow"
)

// Client talks to the orchestration service API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	uploader     *storage.Uploader
	pollInterval time.Duration
}

// NewClient creates an orchestration API client with a pooled transport.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Logger:       logger.With("component", "remote"),
		uploader:     storage.NewUploader(),
		pollInterval: time.Second,
	}
}

// apiResponse is the parsed envelope.
type apiResponse struct {
	Status    string             `json:"status"`
	RequestID string             `json:"request_id"`
	Data      json.RawMessage    `json:"data"`
	Error     *workflow.APIError `json:"error"`
}

// do performs an HTTP request and returns the parsed envelope.
func (c *Client) do(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.Logger.Debug("HTTP request body", "body", string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("HTTP request", "method", method, "url", url)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "body", string(respBody))

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response (status %d): %w\nbody: %s", resp.StatusCode, err, string(respBody))
	}

	if apiResp.Status == "error" && apiResp.Error != nil {
		return &apiResp, apiResp.Error
	}

	return &apiResp, nil
}

// decodeData unmarshals the envelope's data field into dest.
func decodeData(resp *apiResponse, dest any) error {
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// CreateUploadLocation asks the service for a staging location under the
// given project/domain. The suffix names the object, e.g.
// "scriptmode-<version>.tar.gz" for a script archive.
func (c *Client) CreateUploadLocation(ctx context.Context, project, domain, suffix string) (workflow.UploadLocation, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/dataproxy/upload-locations", map[string]string{
		"project": project,
		"domain":  domain,
		"suffix":  suffix,
	})
	if err != nil {
		return workflow.UploadLocation{}, fmt.Errorf("create upload location: %w", err)
	}

	var loc workflow.UploadLocation
	if err := decodeData(resp, &loc); err != nil {
		return workflow.UploadLocation{}, fmt.Errorf("create upload location: %w", err)
	}
	return loc, nil
}

// registerRequest is the script-mode registration payload.
type registerRequest struct {
	Name    string                      `json:"name"`
	Version string                      `json:"version"`
	Inputs  map[string]workflow.TypeTag `json:"inputs"`
	Images  workflow.ImageConfig        `json:"images"`
	Fast    workflow.FastSettings       `json:"fast"`
}

// RegisterWorkflowScriptMode packages the entity's script file, uploads
// the archive to the presigned URL, and registers the workflow version
// with the service.
func (c *Client) RegisterWorkflowScriptMode(ctx context.Context, entity *workflow.Entity, settings workflow.SerializationSettings, version, presignedURL string) (workflow.Registered, error) {
	archive, err := scriptmode.Package(entity.Filename)
	if err != nil {
		return workflow.Registered{}, fmt.Errorf("package script: %w", err)
	}

	c.Logger.Debug("uploading script archive", "workflow", entity.QualifiedName(), "bytes", len(archive))
	if err := c.uploader.PutBytes(ctx, archive, presignedURL); err != nil {
		return workflow.Registered{}, fmt.Errorf("upload script archive: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/workflows/", registerRequest{
		Name:    entity.QualifiedName(),
		Version: version,
		Inputs:  entity.Interface.Inputs,
		Images:  settings.Images,
		Fast:    settings.Fast,
	})
	if err != nil {
		return workflow.Registered{}, fmt.Errorf("register workflow: %w", err)
	}

	var reg workflow.Registered
	if err := decodeData(resp, &reg); err != nil {
		return workflow.Registered{}, fmt.Errorf("register workflow: %w", err)
	}
	return reg, nil
}

// CreateExecution triggers a remote execution of a registered workflow.
func (c *Client) CreateExecution(ctx context.Context, workflowID string, inputs map[string]any, project, domain string) (workflow.Execution, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/executions/", map[string]any{
		"workflow_id": workflowID,
		"inputs":      inputs,
		"project":     project,
		"domain":      domain,
	})
	if err != nil {
		return workflow.Execution{}, fmt.Errorf("create execution: %w", err)
	}

	var exec workflow.Execution
	if err := decodeData(resp, &exec); err != nil {
		return workflow.Execution{}, fmt.Errorf("create execution: %w", err)
	}
	return exec, nil
}

// GetExecution fetches the current state of an execution.
func (c *Client) GetExecution(ctx context.Context, name string) (workflow.Execution, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/executions/"+name, nil)
	if err != nil {
		return workflow.Execution{}, fmt.Errorf("get execution: %w", err)
	}

	var exec workflow.Execution
	if err := decodeData(resp, &exec); err != nil {
		return workflow.Execution{}, fmt.Errorf("get execution: %w", err)
	}
	return exec, nil
}

// WaitExecution polls an execution at a fixed interval until it reaches a
// terminal phase or ctx is done. Phase transitions are logged.
func (c *Client) WaitExecution(ctx context.Context, name string) (workflow.Execution, error) {
	var lastPhase workflow.ExecutionPhase

	for {
		exec, err := c.GetExecution(ctx, name)
		if err != nil {
			return workflow.Execution{}, err
		}

		if exec.Phase != lastPhase {
			c.Logger.Info("execution phase", "execution", name, "phase", exec.Phase)
			lastPhase = exec.Phase
		}

		if exec.Phase.IsTerminal() {
			return exec, nil
		}

		select {
		case <-ctx.Done():
			return workflow.Execution{}, fmt.Errorf("wait for execution %s: %w", name, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
