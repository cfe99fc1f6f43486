package hrsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the local development API endpoint.
const DefaultBaseURL = "http://localhost:3001"

// Client is a minimal HR API client. Each Collection issues requests for one resource.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout is applied only when HTTPClient is nil. Zero leaves it to the transport.
	Timeout time.Duration
}

// New creates a client for baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL}
}

// Record is one persisted entity as returned by the API.
type Record map[string]any

// ID returns the server-assigned identifier.
func (r Record) ID() (int64, bool) {
	return toInt64(r["id"])
}

// Int64 reads a numeric field, accepting JSON numbers and numeric strings.
func (r Record) Int64(key string) (int64, bool) {
	return toInt64(r[key])
}

// String renders a field for display; null and missing fields become "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		return int64(n), n == float64(int64(n))
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Kind classifies a Failure.
type Kind string

const (
	// FetchFailed is a non-success read.
	FetchFailed Kind = "fetch_failed"
	// ValidationFailed is a local rule violation or a server rejection carrying a message.
	ValidationFailed Kind = "validation_failed"
	// ServerError is any other non-success outcome.
	ServerError Kind = "server_error"
)

// Failure is the typed outcome of an unsuccessful operation.
type Failure struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

// AsFailure extracts a Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Event is an audit log entry.
type Event struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts"`
	Type      string         `json:"type"`
	Resource  string         `json:"resource"`
	EntityID  int64          `json:"entity_id"`
	RequestID string         `json:"request_id"`
	Payload   map[string]any `json:"payload"`
}

// Collection is the client for a single REST resource under /api.
type Collection struct {
	client       *Client
	resource     string
	fetchMessage string
}

// Collection returns a client for /api/<resource>. fetchMessage is the fixed text
// reported when listing fails.
func (c *Client) Collection(resource, fetchMessage string) *Collection {
	if fetchMessage == "" {
		fetchMessage = fmt.Sprintf("failed to fetch %s", resource)
	}
	return &Collection{client: c, resource: resource, fetchMessage: fetchMessage}
}

// Resource returns the resource path segment.
func (c *Collection) Resource() string { return c.resource }

// List returns the collection filtered server-side by term. An empty term lists everything.
func (c *Collection) List(ctx context.Context, term string) ([]Record, error) {
	endpoint := c.path() + "?search=" + url.QueryEscape(term)
	status, body, err := c.client.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Failure{Kind: FetchFailed, Message: c.fetchMessage, Err: err}
	}
	if status != http.StatusOK {
		return nil, &Failure{Kind: FetchFailed, StatusCode: status, Message: c.fetchMessage}
	}
	var items []Record
	if err := decode(body, &items); err != nil {
		return nil, &Failure{Kind: FetchFailed, StatusCode: status, Message: c.fetchMessage, Err: err}
	}
	if items == nil {
		items = []Record{}
	}
	return items, nil
}

// Create posts body. A nil Record with a nil error means the server answered 204.
func (c *Collection) Create(ctx context.Context, body any) (Record, error) {
	return c.write(ctx, http.MethodPost, c.path(), body)
}

// Update puts body to the per-id path. Same outcome contract as Create.
func (c *Collection) Update(ctx context.Context, id int64, body any) (Record, error) {
	return c.write(ctx, http.MethodPut, c.itemPath(id), body)
}

// Delete removes the record. Only 204 counts as success.
func (c *Collection) Delete(ctx context.Context, id int64) error {
	status, body, err := c.client.do(ctx, http.MethodDelete, c.itemPath(id), nil)
	if err != nil {
		return &Failure{Kind: ServerError, Message: err.Error(), Err: err}
	}
	if status == http.StatusNoContent {
		return nil
	}
	return failureFromResponse(status, body)
}

func (c *Collection) write(ctx context.Context, method, endpoint string, payload any) (Record, error) {
	status, body, err := c.client.do(ctx, method, endpoint, payload)
	if err != nil {
		return nil, &Failure{Kind: ServerError, Message: err.Error(), Err: err}
	}
	switch status {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK, http.StatusCreated:
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		var rec Record
		if err := decode(body, &rec); err != nil {
			return nil, &Failure{Kind: ServerError, StatusCode: status, Message: "invalid response body", Err: err}
		}
		return rec, nil
	default:
		return nil, failureFromResponse(status, body)
	}
}

func (c *Collection) path() string {
	return "api/" + url.PathEscape(c.resource)
}

func (c *Collection) itemPath(id int64) string {
	return c.path() + "/" + strconv.FormatInt(id, 10)
}

// Events returns the most recent audit events, newest first. An empty resource returns
// events of every resource.
func (c *Client) Events(ctx context.Context, limit int, resource string) ([]Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if resource != "" {
		q.Set("resource", resource)
	}
	endpoint := "api/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Failure{Kind: FetchFailed, Message: "failed to fetch events", Err: err}
	}
	if status != http.StatusOK {
		return nil, &Failure{Kind: FetchFailed, StatusCode: status, Message: "failed to fetch events"}
	}
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &Failure{Kind: FetchFailed, StatusCode: status, Message: "failed to fetch events", Err: err}
	}
	return events, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func failureFromResponse(status int, body []byte) *Failure {
	var eb errorBody
	msg := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		msg = strings.TrimSpace(eb.Error)
	}
	if msg == "" {
		return &Failure{Kind: ServerError, StatusCode: status, Message: fmt.Sprintf("unknown error (HTTP %d)", status)}
	}
	kind := ServerError
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		kind = ValidationFailed
	}
	return &Failure{Kind: kind, StatusCode: status, Message: msg}
}

func decode(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (int, []byte, error) {
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
