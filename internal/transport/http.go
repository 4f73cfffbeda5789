package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowboard/flowboard/pkg/api"
)

// HTTPClient is a Transport that talks to a remote workflow service:
//
//	GET  {base}/workflows          list summaries
//	POST {base}/workflows          create a workflow
//	PUT  {base}/workflows/{id}     persist a graph snapshot
//
// Failures are classified by where they happen, never by error text: a
// request that cannot reach the server at all is NetworkUnavailable, a 4xx
// response is Rejected (the server understood and declined), and anything
// else is the unknown kind.
type HTTPClient struct {
	base   *url.URL
	client *http.Client
}

var _ api.Transport = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTP transport for the given base URL.
// If client is nil, a client with a 30 second timeout is used.
func NewHTTPClient(base string, client *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{base: u, client: client}, nil
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *HTTPClient) GetAll(ctx context.Context, token api.Token) ([]api.WorkflowSummary, error) {
	var out []api.WorkflowSummary
	if err := c.do(ctx, http.MethodGet, "/workflows", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, token api.Token, name, description string) (api.WorkflowSummary, error) {
	var out api.WorkflowSummary
	body := createRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/workflows", token, body, &out); err != nil {
		return api.WorkflowSummary{}, err
	}
	return out, nil
}

func (c *HTTPClient) Save(ctx context.Context, token api.Token, workflowID string, snapshot api.GraphSnapshot) (api.WorkflowSummary, error) {
	var out api.WorkflowSummary
	path := "/workflows/" + url.PathEscape(workflowID)
	if err := c.do(ctx, http.MethodPut, path, token, snapshot, &out); err != nil {
		return api.WorkflowSummary{}, err
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, token api.Token, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return api.NewTransportError(api.TransportUnknown, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return api.NewTransportError(api.TransportUnknown, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// The request never produced a response; the server was unreachable
		// (or the caller cancelled, which surfaces the same way).
		return api.NewTransportError(api.NetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		kind := api.TransportUnknown
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = api.Rejected
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return api.NewTransportError(kind,
			fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg))))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return api.NewTransportError(api.TransportUnknown, err)
		}
	}
	return nil
}
