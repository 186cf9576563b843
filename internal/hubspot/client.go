// Package hubspot is a minimal client for the HubSpot CRM v3 contacts
// API: create, search-by-email, and patch-by-id, plus the upsert flow
// the proxy runs on every submission.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cospark/hubspot-proxy/internal/contact"
	"github.com/cospark/hubspot-proxy/internal/log"
	"github.com/cospark/hubspot-proxy/internal/xerrors"
)

const (
	contactsPath = "/crm/v3/objects/contacts"
	searchPath   = "/crm/v3/objects/contacts/search"
)

// ErrConflict is returned by CreateContact when HubSpot reports that a
// contact with the same email already exists (HTTP 409).
var ErrConflict = xerrors.New("contact already exists")

// APIError carries the upstream status and response text for a failed call.
// The message is what gets relayed to the form client on a 500.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot %s failed: status %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

type Options struct {
	// BaseURL is the API root, https://api.hubapi.com in production.
	BaseURL string
	// Token is the private-app bearer credential. Never logged.
	Token string
	// HTTPClient overrides the default otel-instrumented client (tests).
	HTTPClient *http.Client
	Logger     log.Logger
	// Observe, when set, receives per-call operation, status and duration
	// for metrics. Status 0 means the request never got a response.
	Observe func(op string, status int, d time.Duration)
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  log.Logger
	observe func(op string, status int, d time.Duration)
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, xerrors.New("BaseURL is required")
	}
	if opts.Token == "" {
		return nil, xerrors.New("Token is required")
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	observe := opts.Observe
	if observe == nil {
		observe = func(string, int, time.Duration) {}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		httpc:   httpc,
		logger:  logger,
		observe: observe,
	}, nil
}

// do issues one JSON call and returns the status with the raw body.
// Transport failures come back as errors; HTTP-level failures do not,
// callers decide what each status means for their operation.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, xerrors.Wrapf(err, "marshal %s payload", op)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, xerrors.Wrapf(err, "build %s request", op)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		return 0, nil, xerrors.Wrapf(err, "hubspot %s request", op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return resp.StatusCode, nil, xerrors.Wrapf(err, "read %s response", op)
	}

	c.logger.Debug(ctx, "hubspot call",
		"operation", op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.StatusCode, body, nil
}

// CreateContact creates a contact via the object-creation endpoint.
// A 409 comes back as ErrConflict so the caller can switch to the
// update flow; any other non-2xx is a terminal *APIError.
func (c *Client) CreateContact(ctx context.Context, props contact.Properties) (json.RawMessage, error) {
	status, body, err := c.do(ctx, "create", http.MethodPost, contactsPath,
		map[string]any{"properties": props})
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == http.StatusConflict:
		return nil, xerrors.Wrap(ErrConflict, strings.TrimSpace(string(body)))
	default:
		return nil, &APIError{Op: "create", StatusCode: status, Body: string(body)}
	}
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchRequest struct {
	FilterGroups []struct {
		Filters []searchFilter `json:"filters"`
	} `json:"filterGroups"`
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// SearchContactByEmail looks a contact up with an equality filter on the
// email property. found is false when the search succeeds but matches
// nothing.
func (c *Client) SearchContactByEmail(ctx context.Context, email string) (id string, found bool, err error) {
	var payload searchRequest
	payload.FilterGroups = make([]struct {
		Filters []searchFilter `json:"filters"`
	}, 1)
	payload.FilterGroups[0].Filters = []searchFilter{
		{PropertyName: "email", Operator: "EQ", Value: email},
	}

	status, body, err := c.do(ctx, "search", http.MethodPost, searchPath, payload)
	if err != nil {
		return "", false, err
	}
	if status < 200 || status >= 300 {
		return "", false, &APIError{Op: "search", StatusCode: status, Body: string(body)}
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", false, xerrors.Wrap(err, "decode search response")
	}
	if len(sr.Results) == 0 {
		return "", false, nil
	}
	return sr.Results[0].ID, true, nil
}

// UpdateContact patches an existing contact by id. Properties must not
// contain the email key, HubSpot forbids updating the unique key here.
func (c *Client) UpdateContact(ctx context.Context, id string, props contact.Properties) (json.RawMessage, error) {
	status, body, err := c.do(ctx, "update", http.MethodPatch, contactsPath+"/"+id,
		map[string]any{"properties": props})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Op: "update", StatusCode: status, Body: string(body)}
	}
	return body, nil
}
