package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/goliatone/go-formengine/pkg/model"
)

// HTTPSource fetches option lists from `GET {base}/{key}`. Response bodies may
// be a bare JSON array or an object carrying an "options" array.
type HTTPSource struct {
	base    *url.URL
	client  *retryablehttp.Client
	headers http.Header
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithRetryMax bounds retries for transient failures.
func WithRetryMax(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.client.RetryMax = n
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.HTTPClient.Timeout = d
		}
	}
}

// WithHeader adds a header to every request, e.g. an Authorization bearer.
func WithHeader(name, value string) HTTPOption {
	return func(s *HTTPSource) {
		if strings.TrimSpace(name) != "" {
			s.headers.Add(name, value)
		}
	}
}

// WithHTTPLogger routes retry diagnostics to logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if logger != nil {
			s.client.Logger = logger
		}
	}
}

// NewHTTPSource builds a source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("options: base url is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("options: parse base url: %w", err)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.Logger = nil

	s := &HTTPSource{
		base:    base,
		client:  client,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Options implements Source.
func (s *HTTPSource) Options(ctx context.Context, key string) (model.OptionList, error) {
	endpoint := s.base.JoinPath(url.PathEscape(key))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("options: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for name, values := range s.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("options: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("options: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("options: read body: %w", err)
	}
	return decodeOptions(body)
}

func decodeOptions(body []byte) (model.OptionList, error) {
	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		return stringify(list), nil
	}
	var wrapped struct {
		Options []any `json:"options"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("options: decode: %w", err)
	}
	return stringify(wrapped.Options), nil
}

func stringify(values []any) model.OptionList {
	out := make(model.OptionList, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
