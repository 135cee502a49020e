package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dpax/linkedin-feed/internal/entity"
)

const DefaultAPIKeyHeader = "x-api-key"

// WebhookCandidate builds the single candidate of the webhook mode.
func WebhookCandidate(cfg entity.WebhookConfig, limit int) entity.Candidate {
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))

	if method == "" {
		method = http.MethodGet
	}

	headers := map[string]string{"Accept": "application/json"}

	if cfg.APIKey != "" {
		header := cfg.APIKeyHeader

		if header == "" {
			header = DefaultAPIKeyHeader
		}

		headers[header] = cfg.APIKey
	}

	candidate := entity.Candidate{
		URL:     cfg.Endpoint,
		Method:  method,
		Headers: headers,
	}

	if cfg.SendLimit || method != http.MethodGet {
		// Marshalling a map of ints cannot fail.
		candidate.Body, _ = json.Marshal(map[string]int{"limit": limit})
		headers["Content-Type"] = "application/json"
	}

	return candidate
}

// HTTPFetcher performs plain HTTP requests, used for the webhook endpoint.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: httpClient}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, candidate entity.Candidate) ([]byte, error) {
	method := candidate.Method

	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader

	if len(candidate.Body) > 0 {
		body = bytes.NewReader(candidate.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, candidate.URL, body)

	if err != nil {
		return nil, fmt.Errorf("could not build request for %s: %w", candidate.URL, err)
	}

	for k, v := range candidate.Headers {
		req.Header.Set(k, v)
	}

	res, err := f.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("could not request %s: %w", candidate.URL, err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: candidate.URL, StatusCode: res.StatusCode}
	}

	content, err := io.ReadAll(res.Body)

	if err != nil {
		return nil, fmt.Errorf("could not read response from %s: %w", candidate.URL, err)
	}

	return content, nil
}
