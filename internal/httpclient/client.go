package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// maxRetries is the number of retries after the initial attempt
	maxRetries = 1

	// baseDelay is multiplied by the attempt number between tries
	baseDelay = 500 * time.Millisecond
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// Client wraps an http.Client with linear-backoff retry for calls to the
// STT, TTS and knowledge-base backends. Transport errors and 5xx responses
// are retried once; 4xx responses fail immediately.
type Client struct {
	http *http.Client
}

// New creates a retrying client with the given request timeout
func New(timeout time.Duration) *Client {
	return &Client{http: NewDefaultHTTPClient(timeout)}
}

// do executes a request built by build, retrying on transport errors and
// 5xx status codes. build is called per attempt so the body can be re-read.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return body, nil
			} else if resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
			} else {
				// Client errors are not retryable
				return nil, fmt.Errorf("request to %s failed: status %d: %s", req.URL, resp.StatusCode, truncate(body, 200))
			}
		}

		if attempt <= maxRetries {
			select {
			case <-time.After(baseDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

// PostJSON posts a JSON payload and returns the response body on 2xx
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

// GetBytes fetches a URL and returns the response body on 2xx
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

// PostMultipartFile posts a file upload plus optional form fields
func (c *Client) PostMultipartFile(ctx context.Context, url string, headers map[string]string, fieldName, filename string, data []byte, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	body := buf.Bytes()
	contentType := writer.FormDataContentType()

	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
