// Package catalog dispatches classified queries to the catalog service,
// which stores the result under the process id.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"voicesearch/worker/intent"
)

var (
	// ErrRejected means the catalog refused the query. Retrying will not help.
	ErrRejected      = errors.New("catalog rejected query")
	ErrUnknownIntent = errors.New("no catalog endpoint for intent")
)

var searchPaths = map[intent.Kind]string{
	intent.KindMovie:  "/api/v1/films/search",
	intent.KindGenre:  "/api/v1/genres/search",
	intent.KindPerson: "/api/v1/persons/search",
}

type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxTries        uint          `yaml:"max_tries"`
}

type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
}

func NewClient(baseURL string, httpClient *http.Client, retry RetryConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = 200 * time.Millisecond
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = 5 * time.Second
	}
	if retry.MaxTries == 0 {
		retry.MaxTries = 4
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		retry:   retry,
	}
}

// Search asks the catalog to run the query for in and deliver the result to
// processID. Transport errors and 5xx answers are retried with backoff.
func (c *Client) Search(ctx context.Context, in intent.Intent, processID string) error {
	path, ok := searchPaths[in.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}

	params := url.Values{}
	params.Set("query", in.Subject)
	params.Set("process_id", processID)
	target := c.baseURL + path + "?" + params.Encode()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.Reset()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.get(ctx, target)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.retry.MaxTries))
	return err
}

func (c *Client) get(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("catalog responded %s", resp.Status)
	default:
		return backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, strings.TrimSpace(string(body))))
	}
}
