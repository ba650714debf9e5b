package service

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

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

// ErrMirrorNotConfigured is returned when no mirror URL is set.
var ErrMirrorNotConfigured = errors.New("sheet mirror url not configured")

// MirrorStatusError reports a non-2xx answer from the mirror endpoint.
type MirrorStatusError struct {
	StatusCode int
	Body       string
}

func (e *MirrorStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mirror responded %d", e.StatusCode)
	}
	return fmt.Sprintf("mirror responded %d: %s", e.StatusCode, e.Body)
}

// MirrorClientOptions configures the HTTP mirror client.
type MirrorClientOptions struct {
	URL        string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPMirrorClient posts inquiry snapshots to the spreadsheet mirror. It
// never retries; recovery belongs to the sweeper.
type HTTPMirrorClient struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewHTTPMirrorClient constructs the client.
func NewHTTPMirrorClient(opts MirrorClientOptions) *HTTPMirrorClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPMirrorClient{
		url:        strings.TrimSpace(opts.URL),
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
	}
}

// Post sends one snapshot. Only a 2xx response counts as success.
func (c *HTTPMirrorClient) Post(ctx context.Context, payload models.MirrorPayload) error {
	if c == nil || c.url == "" {
		return ErrMirrorNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mirror payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mirror request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Case-Id", payload.CaseID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post mirror: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &MirrorStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return nil
}
