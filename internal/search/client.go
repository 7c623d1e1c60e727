package search

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"winelens/internal/config"
	"winelens/internal/services"
)

const (
	searchPath      = "/v1/wines/search"
	batchSearchPath = "/v1/wines/search/batch"
	healthPath      = "/v1/health"
)

// Client calls the search service over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// New creates a search client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("search api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("search base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "winelens",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the [search] section. It returns nil
// without error when remote search is disabled.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil || !cfg.Search.Enabled {
		return nil, nil
	}
	return New(cfg.Search.APIKey, cfg.Search.BaseURL, opts...)
}

// Ping checks that the service answers and accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	var payload map[string]any
	return c.do(req, "ping", &payload)
}

type searchResponse struct {
	Results []Hit `json:"results"`
}

type batchRequest struct {
	Queries []string `json:"queries"`
}

type batchResponse struct {
	Results map[string]Hit `json:"results"`
}

// Search returns hits for query ordered by descending confidence.
func (c *Client) Search(ctx context.Context, query string, filters Filters) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "search", "query must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	if filters.Vintage > 0 {
		params.Set("vintage", strconv.Itoa(filters.Vintage))
	}
	if filters.Color != "" {
		params.Set("color", string(filters.Color))
	}
	if country := strings.TrimSpace(filters.Country); country != "" {
		params.Set("country", country)
	}
	if filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(filters.Limit))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var payload searchResponse
	if err := c.do(req, "search", &payload); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(payload.Results))
	for _, hit := range payload.Results {
		if strings.TrimSpace(hit.Record.ID) != "" {
			hits = append(hits, hit)
		}
	}
	sortHits(hits)
	return hits, nil
}

// BatchSearch returns the best hit for each query the service resolved.
// Queries without a hit are absent from the map.
func (c *Client) BatchSearch(ctx context.Context, queries []string) (map[string]Hit, error) {
	cleaned := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return map[string]Hit{}, nil
	}
	body, err := json.Marshal(batchRequest{Queries: cleaned})
	if err != nil {
		return nil, fmt.Errorf("encode batch request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+batchSearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload batchResponse
	if err := c.do(req, "batch search", &payload); err != nil {
		return nil, err
	}
	out := make(map[string]Hit, len(payload.Results))
	for query, hit := range payload.Results {
		if strings.TrimSpace(hit.Record.ID) != "" {
			out[query] = hit
		}
	}
	return out, nil
}

func (c *Client) do(req *http.Request, operation string, out any) error {
	ctx := req.Context()
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		if cause := context.Cause(ctx); cause != nil && errors.Is(cause, services.ErrSuperseded) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
		return services.Wrap(marker, "search", operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(statusMarker(resp.StatusCode), "search", operation,
			fmt.Sprintf("service returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "search", operation, "decode response", err)
	}
	return nil
}

func statusMarker(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.ErrConfiguration
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return services.ErrValidation
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return services.ErrTimeout
	default:
		return services.ErrTransient
	}
}

func sortHits(hits []Hit) {
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
}
