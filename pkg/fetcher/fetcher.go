package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	URL    string
	Code   int
	Status string // reason phrase, e.g. "Not Found"
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Status)
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher returns a Fetcher whose requests time out after timeout (0 = never).
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Open issues a GET and returns the response with its body unread.
// Non-2xx responses are drained, closed and reported as *StatusError.
// The caller must close the returned body.
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: reasonPhrase(resp)}
	}
	return resp.Body, nil
}

func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return bodyBytes, nil
}

// reasonPhrase strips the numeric code from resp.Status ("404 Not Found").
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
