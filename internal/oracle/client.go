package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/graphtrust/graphtrust/internal/config"
	"github.com/graphtrust/graphtrust/internal/identity"
)

// errNotFound marks a 404 internally. The remote answering 404 means
// "not present in the graph" — a valid domain answer, never an error —
// so each operation translates it to its own empty value and the
// sentinel never escapes the package.
var errNotFound = errors.New("oracle: not found")

// Client queries a distance-oracle service over HTTP. It holds no
// mutable state beyond the base address and a shared http.Client, so a
// single Client is safe for concurrent use. Failed requests are not
// retried; retry policy belongs to the caller.
type Client struct {
	base  string
	httpc *http.Client
}

// New builds a Client for the configured oracle. A single trailing
// slash on the base address is stripped; no other normalization is
// performed.
func New(cfg config.OracleConfig) (*Client, error) {
	httpc, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("oracle: build http client: %w", err)
	}
	return &Client{
		base:  strings.TrimSuffix(cfg.BaseURL, "/"),
		httpc: httpc,
	}, nil
}

// Distance returns the hop distance between from and to, or nil when no
// path exists (including a 404 answer).
func (c *Client) Distance(ctx context.Context, from, to identity.Identity) (*int, error) {
	info, err := c.DistanceInfo(ctx, from, to)
	if err != nil || info == nil {
		return nil, err
	}
	return info.Hops, nil
}

// DistanceInfo returns the full validated /distance answer for the
// pair, or nil when the oracle answered 404.
func (c *Client) DistanceInfo(ctx context.Context, from, to identity.Identity) (*DistanceInfo, error) {
	body, err := c.getJSON(ctx, "/distance", pairQuery(from, to), true)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ValidateDistanceInfo(body)
}

// DistanceBatch queries hop distances from one source to many targets
// in a single POST. The target list passes through as-is; there is no
// 404 special case on this endpoint.
func (c *Client) DistanceBatch(ctx context.Context, from identity.Identity, targets []identity.Identity) (BatchResult, error) {
	body, err := c.postJSON(ctx, "/distance/batch", map[string]any{
		"from":    from,
		"targets": targets,
	})
	if err != nil {
		return nil, err
	}
	return ValidateBatch(body)
}

// Stats returns the oracle's /stats body as decoded. The stats schema
// is implementation-defined, so this is the one read path that skips
// validation deliberately. There is no 404 special case: stats are not
// a per-node lookup, so any non-2xx answer is an operational failure.
func (c *Client) Stats(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/stats", nil, false)
}

// Healthy probes /health. Any 2xx answer is healthy; every failure —
// network error or error status — is reported as false. This is the
// only operation that swallows failures.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Debug("oracle: health probe failed", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Follows returns the accounts pubkey follows, in the oracle's order.
// A 404 (pubkey not in the graph) yields an empty list.
func (c *Client) Follows(ctx context.Context, pubkey identity.Identity) ([]identity.Identity, error) {
	body, err := c.getJSON(ctx, "/follows", url.Values{"pubkey": {pubkey.String()}}, true)
	if errors.Is(err, errNotFound) {
		return []identity.Identity{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ValidateFollows(body)
}

// CommonFollows returns the accounts both from and to follow, in the
// oracle's order. A 404 yields an empty list.
func (c *Client) CommonFollows(ctx context.Context, from, to identity.Identity) ([]identity.Identity, error) {
	body, err := c.getJSON(ctx, "/common-follows", pairQuery(from, to), true)
	if errors.Is(err, errNotFound) {
		return []identity.Identity{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ValidateCommonFollows(body)
}

// Path returns one concrete hop-by-hop route from from to to, or nil
// when no route exists (null path field or a 404 answer).
func (c *Client) Path(ctx context.Context, from, to identity.Identity) ([]identity.Identity, error) {
	body, err := c.getJSON(ctx, "/path", pairQuery(from, to), true)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ValidatePath(body)
}

func pairQuery(from, to identity.Identity) url.Values {
	return url.Values{"from": {from.String()}, "to": {to.String()}}
}

// getJSON issues a GET and decodes the body. With notFoundIsEmpty, a
// 404 maps to errNotFound for the caller to translate; endpoints
// without a 404 domain meaning (stats) pass false and get a
// StatusError like any other error status.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, notFoundIsEmpty bool) (any, error) {
	target := c.base + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: %s: build request: %w", endpoint, err)
	}
	return c.decode(endpoint, req, notFoundIsEmpty)
}

// postJSON issues a POST with a JSON body and decodes the answer.
// There is no 404 translation on POST endpoints.
func (c *Client) postJSON(ctx context.Context, endpoint string, reqBody any) (any, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("oracle: %s: encode request: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("oracle: %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.decode(endpoint, req, false)
}

func (c *Client) decode(endpoint string, req *http.Request, notFoundIsEmpty bool) (any, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && notFoundIsEmpty:
		return nil, errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("oracle: %s: decode body: %w", endpoint, err)
	}
	return body, nil
}
