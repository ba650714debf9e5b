package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrOCRNotConfigured is returned when no recognition endpoint is set.
var ErrOCRNotConfigured = errors.New("ocr endpoint not configured")

// OCRResult is the recognized text of one image.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// OCRClientOptions configures the recognition client.
type OCRClientOptions struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPOCRClient calls an external text-recognition endpoint.
type HTTPOCRClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPOCRClient constructs the client.
func NewHTTPOCRClient(opts OCRClientOptions) *HTTPOCRClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPOCRClient{
		endpoint:   strings.TrimSpace(opts.Endpoint),
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
	}
}

// Recognize uploads image and returns the recognized text.
func (c *HTTPOCRClient) Recognize(ctx context.Context, image []byte, mimeType string) (*OCRResult, error) {
	if c == nil || c.endpoint == "" {
		return nil, ErrOCRNotConfigured
	}
	body, err := json.Marshal(ocrRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		MimeType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ocr: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var result OCRResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	return &result, nil
}
