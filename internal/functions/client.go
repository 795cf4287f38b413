// Package functions invokes the managed backend's callable functions.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/session"
)

// maxResponseBytes bounds how much of a function response is read.
const maxResponseBytes = 4 << 20

// Caller invokes a named remote function with payload and decodes its result
// into out.
type Caller interface {
	Call(ctx context.Context, name string, payload any, out any) error
}

// HTTPCaller speaks the callable HTTPS protocol: the request body is
// {"data": payload} and the reply is {"result": ...} or {"error": {...}}.
type HTTPCaller struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCaller creates a caller for functions hosted under baseURL. Timeouts
// and retries are left to the request context and the platform.
func NewHTTPCaller(baseURL string) *HTTPCaller {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTPCaller{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: transport},
	}
}

// WithHTTPClient replaces the underlying client.
func (c *HTTPCaller) WithHTTPClient(client *http.Client) *HTTPCaller {
	c.client = client
	return c
}

type callRequest struct {
	Data any `json:"data"`
}

type callResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *callError      `json:"error"`
}

type callError struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (c *HTTPCaller) Call(ctx context.Context, name string, payload any, out any) error {
	body, err := json.Marshal(callRequest{Data: payload})
	if err != nil {
		return apperrors.NewInternalError("failed to encode function payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewInvocationError("invalid function request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s, ok := session.FromContext(ctx); ok && s.IDToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.IDToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(fmt.Sprintf("function %s timed out", name), err)
		}
		return apperrors.NewInvocationError(fmt.Sprintf("function %s call failed", name), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.NewInvocationError(fmt.Sprintf("function %s response unreadable", name), err)
	}

	var envelope callResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	if envelope.Error != nil {
		msg := envelope.Error.Message
		if msg == "" {
			msg = envelope.Error.Status
		}
		return apperrors.NewInvocationError(msg, nil).WithDetails(envelope.Error.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewInvocationError(
			fmt.Sprintf("function %s returned status %d", name, resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return malformed(name, decodeErr)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return malformed(name, errors.New("missing result"))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return malformed(name, err)
	}
	return nil
}

func malformed(name string, cause error) error {
	return apperrors.NewInvocationError(
		fmt.Sprintf("function %s returned an unexpected response", name),
		fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, cause),
	)
}
