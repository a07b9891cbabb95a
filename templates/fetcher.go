package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/giygas/bpmn-tools/interfaces"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/giygas/bpmn-tools/templates/entities"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrHTTPStatus is wrapped when a source answers with a non-2xx status
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrInvalidJSON is wrapped when a source body does not parse as JSON
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrInvalidEncoding is wrapped when a source body is not UTF-8
	ErrInvalidEncoding = errors.New("body is not valid UTF-8")
)

// Compile-time check to ensure HTTPFetcher implements Fetcher
var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher downloads template documents with a plain GET
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher; a zero timeout leaves requests unbounded
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads url and returns its body as a validated JSON document
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (entities.Template, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "url", url, "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	text, err := decodeBody(body)
	if err != nil {
		return nil, err
	}

	var doc json.RawMessage
	if err := json.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	logging.Debug("Fetched template document", "url", url, "bytes", len(body))
	return doc, nil
}

// decodeBody returns the body as UTF-8 text without a leading BOM.
// JSON must be UTF-8, so any other encoding fails the source.
func decodeBody(body []byte) ([]byte, error) {
	if !utf8.Valid(body) {
		return nil, ErrInvalidEncoding
	}

	text, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return text, nil
}
