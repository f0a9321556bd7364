// Package crpt talks to the CRPT ISMP (Chestny ZNAK) document API.
package crpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"crptapi/internal/model"
)

const (
	DefaultBaseURL    = "https://ismp.crpt.ru"
	DefaultAPIVersion = "/api/v3"
	CreateDocumentURI = "/lk/documents/create"

	maxErrorBody    = 512
	maxResponseBody = 1 << 20
)

// ErrResponseTooLarge is returned when the upstream body exceeds 1 MiB.
var ErrResponseTooLarge = errors.New("crpt: response body too large")

// Limiter gates outgoing requests. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Config holds the upstream endpoint settings.
type Config struct {
	BaseURL    string
	APIVersion string
	Token      string
	Timeout    time.Duration
}

// Result describes an accepted create-document call.
type Result struct {
	StatusCode int
	Body       []byte
	Payload    []byte
}

// APIError is returned when the upstream answers with anything but 200.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to create document, response code: %d", e.StatusCode)
}

// DocumentCreator is the use case the service layer depends on.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, doc *model.Document) (*Result, error)
}

// Client is a rate-limited ISMP client. It is safe for concurrent use; all
// goroutines sharing a Client share its request budget.
type Client struct {
	endpoint string
	token    string
	limiter  Limiter
	http     *http.Client
	onWait   func(time.Duration)
}

var _ DocumentCreator = (*Client)(nil)

// NewClient builds a client for cfg. If httpClient is nil a client with
// cfg.Timeout and an OpenTelemetry transport is created.
func NewClient(cfg Config, limiter Limiter, httpClient *http.Client) (*Client, error) {
	if limiter == nil {
		return nil, fmt.Errorf("crpt: limiter is required")
	}
	endpoint, err := BuildURL(cfg.BaseURL, cfg.APIVersion, CreateDocumentURI)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		limiter:  limiter,
		http:     httpClient,
	}, nil
}

// BuildURL joins the base URL with the API version and resource path.
func BuildURL(baseURL, apiVersion, resource string) (string, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return u.JoinPath(apiVersion, resource).String(), nil
}

// ObserveWait registers f to receive the time each call spent blocked on the limiter.
// It must be called before the client is shared.
func (c *Client) ObserveWait(f func(time.Duration)) { c.onWait = f }

// URL returns the create-document endpoint.
func (c *Client) URL() string { return c.endpoint }

// CreateDocument waits for a rate-limit slot and posts doc as JSON.
func (c *Client) CreateDocument(ctx context.Context, doc *model.Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("crpt: document is nil")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	waitStart := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if c.onWait != nil {
		c.onWait(time.Since(waitStart))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxResponseBody)
	}

	return &Result{StatusCode: resp.StatusCode, Body: body, Payload: payload}, nil
}
