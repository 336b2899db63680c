// Package client is a typed client for the convoy HTTP API. Query
// commands use it to ask a running sheriff daemon for the federation
// instead of opening the local cache.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/convoy/internal/aggregate"
	"github.com/alfredjeanlab/convoy/internal/graph"
	"github.com/alfredjeanlab/convoy/internal/model"
)

// maxGraphLimit is sent as ?limit= when the whole graph is wanted. The
// server truncates the node list at its own default otherwise.
const maxGraphLimit = 1_000_000

// Client talks to one convoy server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client targeting the given base URL (e.g.
// "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Sheriff string `json:"sheriff,omitempty"`
}

// Health reports whether the server is up and, when it carries a
// daemon, the daemon's state.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/v1/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GraphResponse is the body of GET /v1/graph.
type GraphResponse struct {
	Beads      []*model.Bead       `json:"beads"`
	Shadows    []*model.ShadowBead `json:"shadows"`
	Edges      []graph.Edge        `json:"edges"`
	Total      int                 `json:"total"`
	CapturedAt time.Time           `json:"captured_at"`
	PassID     string              `json:"pass_id"`
}

// Graph fetches the whole federation and rebuilds it as a queryable
// graph alongside the pass metadata it was captured under.
func (c *Client) Graph(ctx context.Context) (*graph.FederatedGraph, *GraphResponse, error) {
	var resp GraphResponse
	path := fmt.Sprintf("/v1/graph?limit=%d", maxGraphLimit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, nil, err
	}
	return graph.Build(resp.Beads, resp.Shadows), &resp, nil
}

// ListFilter narrows a ListBeads call. Zero values match everything.
type ListFilter struct {
	Origin   string
	Status   string
	Type     string
	Assignee string
	Label    string
	Limit    int
}

// ListBeads returns beads matching the filter plus the pre-truncation
// total.
func (c *Client) ListBeads(ctx context.Context, f ListFilter) ([]*model.Bead, int, error) {
	q := url.Values{}
	if f.Origin != "" {
		q.Set("origin", f.Origin)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Assignee != "" {
		q.Set("assignee", f.Assignee)
	}
	if f.Label != "" {
		q.Set("label", f.Label)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	path := "/v1/beads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Beads []*model.Bead `json:"beads"`
		Total int           `json:"total"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Beads, resp.Total, nil
}

// GetBead fetches one bead by id.
func (c *Client) GetBead(ctx context.Context, id string) (*model.Bead, error) {
	var bead model.Bead
	if err := c.get(ctx, "/v1/beads/"+url.PathEscape(id), &bead); err != nil {
		return nil, err
	}
	return &bead, nil
}

// Ready returns beads whose every dependency is absent or terminal.
func (c *Client) Ready(ctx context.Context, limit int) ([]*model.Bead, int, error) {
	path := "/v1/ready"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Beads []*model.Bead `json:"beads"`
		Total int           `json:"total"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Beads, resp.Total, nil
}

// Blocked returns beads held by open dependencies, each paired with the
// ids holding it.
func (c *Client) Blocked(ctx context.Context, limit int) ([]*graph.BlockedBead, int, error) {
	path := "/v1/blocked"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Beads []*graph.BlockedBead `json:"beads"`
		Total int                  `json:"total"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Beads, resp.Total, nil
}

// Cycles returns every dependency cycle in the federation.
func (c *Client) Cycles(ctx context.Context) ([][]model.BeadID, error) {
	var resp struct {
		Cycles [][]model.BeadID `json:"cycles"`
	}
	if err := c.get(ctx, "/v1/cycles", &resp); err != nil {
		return nil, err
	}
	return resp.Cycles, nil
}

// Edges returns dependency edges; crossOnly narrows to edges spanning
// two rigs.
func (c *Client) Edges(ctx context.Context, crossOnly bool) ([]graph.Edge, error) {
	path := "/v1/edges"
	if crossOnly {
		path += "?cross_repo=true"
	}
	var resp struct {
		Edges []graph.Edge `json:"edges"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Edges, nil
}

// Stats returns the federation summary.
func (c *Client) Stats(ctx context.Context) (*graph.Stats, error) {
	var stats graph.Stats
	if err := c.get(ctx, "/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Report returns the daemon's last pass report.
func (c *Client) Report(ctx context.Context) (*aggregate.Report, error) {
	var report aggregate.Report
	if err := c.get(ctx, "/v1/report", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// get performs a GET request and decodes the JSON response. The API is
// read-only, so no other method is needed.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
