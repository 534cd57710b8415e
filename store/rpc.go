package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// RemoteProcedure calls the managed function backend for server-validated
// mutations (e.g. QR-code assignment with its uniqueness check).
type RemoteProcedure interface {
	Call(ctx context.Context, name string, payload any) (json.RawMessage, error)
}

// ProcedureError is a validation-style rejection from the function backend.
// The message is surfaced to the user verbatim; retrying without new input
// will not help.
type ProcedureError struct {
	Name    string
	Message string
}

func (e *ProcedureError) Error() string {
	return e.Message
}

// HTTPProcedureClient posts JSON to {baseURL}/{name}.
type HTTPProcedureClient struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

func NewHTTPProcedureClient() (*HTTPProcedureClient, error) {
	base := strings.TrimRight(os.Getenv("FUNCTIONS_BASE_URL"), "/")
	if base == "" {
		return nil, errors.New("FUNCTIONS_BASE_URL is required")
	}
	return &HTTPProcedureClient{
		BaseURL:   base,
		AuthToken: os.Getenv("FUNCTIONS_AUTH_TOKEN"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *HTTPProcedureClient) Call(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("call %s: read response: %w", name, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	// 4xx responses carry {"error": "..."} with a user-facing message.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var parsed struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != "" {
			return nil, &ProcedureError{Name: name, Message: parsed.Error}
		}
		return nil, &ProcedureError{Name: name, Message: strings.TrimSpace(string(respBody))}
	}

	return nil, fmt.Errorf("call %s: unexpected status %d", name, resp.StatusCode)
}
