package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/infrastructure/resilience"
)

// Client is a thin Elasticsearch HTTP client covering the handful of APIs
// the chatbot needs: _search, _bulk, _delete_by_query and the root ping.
// Calls run through the shared resilience executor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewClient(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// rawHit is one entry of a _search response before corpus-specific decoding.
type rawHit struct {
	ID     string          `json:"_id"`
	Index  string          `json:"_index"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Ping checks cluster reachability with a root GET.
func (c *Client) Ping(ctx context.Context) error {
	return c.executor.Execute(ctx, "elastic.ping", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
		if err != nil {
			return fmt.Errorf("create ping request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("elasticsearch ping: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return &StatusError{Status: resp.StatusCode, Op: "ping"}
		}
		return nil
	}, ClassifyError)
}

// search posts a query body to <index>/_search and returns the raw hits.
func (c *Client) search(ctx context.Context, operation, index string, body map[string]any) ([]rawHit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var hits []rawHit
	err = c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		endpoint := fmt.Sprintf("%s/%s/_search", c.baseURL, url.PathEscape(index))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create search request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("elasticsearch search: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError(resp, "search")
		}

		var searchResp struct {
			Hits struct {
				Hits []rawHit `json:"hits"`
			} `json:"hits"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
			return fmt.Errorf("decode search response: %w", err)
		}
		hits = searchResp.Hits.Hits
		return nil
	}, ClassifyError)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// bulk sends a prepared ndjson payload to <index>/_bulk with refresh, so a
// rebuild is visible to searches as soon as the call returns.
func (c *Client) bulk(ctx context.Context, index string, ndjson []byte) error {
	return c.executor.Execute(ctx, "elastic.bulk", func(ctx context.Context) error {
		endpoint := fmt.Sprintf("%s/%s/_bulk?refresh=true", c.baseURL, url.PathEscape(index))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(ndjson))
		if err != nil {
			return fmt.Errorf("create bulk request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-ndjson")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("elasticsearch bulk: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError(resp, "bulk")
		}

		var bulkResp struct {
			Errors bool `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
			return fmt.Errorf("decode bulk response: %w", err)
		}
		if bulkResp.Errors {
			return fmt.Errorf("elasticsearch bulk: one or more items failed")
		}
		return nil
	}, ClassifyError)
}

// deleteAll clears an index with _delete_by_query. A missing index is not an
// error; the following bulk write creates it.
func (c *Client) deleteAll(ctx context.Context, index string) error {
	return c.executor.Execute(ctx, "elastic.delete_by_query", func(ctx context.Context) error {
		body := `{"query":{"match_all":{}}}`
		endpoint := fmt.Sprintf("%s/%s/_delete_by_query?refresh=true", c.baseURL, url.PathEscape(index))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("create delete request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("elasticsearch delete by query: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode >= 300 {
			return statusError(resp, "delete_by_query")
		}
		return nil
	}, ClassifyError)
}

// StatusError is a non-2xx Elasticsearch response.
type StatusError struct {
	Status int
	Op     string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("elasticsearch %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("elasticsearch %s: status %d", e.Op, e.Status)
}

func statusError(resp *http.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{Status: resp.StatusCode, Op: op, Body: strings.TrimSpace(string(body))}
}

// ClassifyError treats server-side and transport failures as breaker-worthy
// and retryable; client errors are neither.
func ClassifyError(err error) resilience.Outcome {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests {
			return resilience.Outcome{Retryable: true, RecordFailure: true}
		}
		return resilience.Outcome{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
		return resilience.Outcome{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retryable: false, RecordFailure: true}
	}
	return resilience.Outcome{Retryable: true, RecordFailure: true}
}
