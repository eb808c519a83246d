package kie

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

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("kie: api key is required")

const maxResponseBytes = 4 << 20

// Options configures the kie.ai client.
type Options struct {
	APIKey     string
	BaseURL    string
	Resolution string
	// MaxConcurrent caps simultaneously outstanding upstream tasks.
	MaxConcurrent  int
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *infra.Logger
	Metrics        *metrics.Collector
	Sleep          SleepFunc
	Policies       map[Family]PollPolicy
	CreditsTTL     time.Duration
}

// Client creates upstream tasks and polls them to completion.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	adapters   map[Family]Adapter
	poller     *Poller
	sem        *semaphore.Weighted
	logger     *infra.Logger
	metrics    *metrics.Collector
	credits    *cache.Cache
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kie.ai/api/v1"
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	creditsTTL := opts.CreditsTTL
	if creditsTTL <= 0 {
		creditsTTL = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		adapters:   NewAdapters(opts.Resolution),
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     logger,
		metrics:    opts.Metrics,
		credits:    cache.New(creditsTTL, 2*creditsTTL),
	}
	c.poller = NewPoller(c.get, opts.Sleep, opts.Policies, logger, opts.Metrics)
	return c, nil
}

// Adapter returns the adapter for a family.
func (c *Client) Adapter(f Family) (Adapter, bool) {
	a, ok := c.adapters[f]
	return a, ok
}

// Generate runs one image-to-image task: build, create, poll.
func (c *Client) Generate(ctx context.Context, modelKey, prompt, imageURL string, aux []string) ([]string, error) {
	m, err := LookupModel(modelKey)
	if err != nil {
		return nil, err
	}
	a, ok := c.adapters[m.Family]
	if !ok {
		return nil, fmt.Errorf("kie: no adapter for family %s", m.Family)
	}
	if !m.AcceptsAuxiliary {
		aux = nil
	}
	payload, err := a.BuildPayload(m, prompt, imageURL, aux)
	if err != nil {
		return nil, err
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("kie: acquire upstream slot: %w", err)
	}
	defer c.sem.Release(1)

	start := time.Now()
	taskID, err := c.createTask(ctx, a, m, payload)
	if err != nil {
		c.metrics.ObserveTask(m.Key, string(m.Family), metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}
	urls, err := c.poller.Poll(ctx, a, m.Key, taskID)
	c.metrics.ObserveTask(m.Key, string(m.Family), outcomeOf(err), time.Since(start))
	return urls, err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeFailed
	}
}

func (c *Client) createTask(ctx context.Context, a Adapter, m Model, payload any) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("kie: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+a.CreatePath(), &buf)
	if err != nil {
		return "", fmt.Errorf("kie: build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.TaskError{Kind: domain.ErrProviderCreateFailed, Model: m.Key, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &domain.TaskError{Kind: domain.ErrProviderCreateFailed, Model: m.Key, Message: err.Error()}
	}

	var env envelope[createData]
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &domain.TaskError{Kind: domain.ErrProviderCreateFailed, Model: m.Key, Message: fmt.Sprintf("http %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}
	if env.Code != http.StatusOK {
		return "", &domain.TaskError{Kind: domain.ErrProviderCreateFailed, Model: m.Key, Message: firstNonEmpty(env.Msg, truncate(string(body), 200))}
	}
	if env.Data == nil || strings.TrimSpace(env.Data.TaskID) == "" {
		return "", &domain.TaskError{Kind: domain.ErrProviderCreateFailed, Model: m.Key, Message: "response without taskId"}
	}
	c.logger.Info().Str("model", m.Key).Str("family", string(m.Family)).Str("task_id", env.Data.TaskID).Msg("task created")
	return env.Data.TaskID, nil
}

// get performs an authorized GET relative to the base URL. Non-2xx replies are errors.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("kie: GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
