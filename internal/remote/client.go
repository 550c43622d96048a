// Package remote talks to the todo service's HTTP/JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// BasePath is where the todo collection lives on the server.
const BasePath = "/api/todos"

// Client performs one request per API verb. It never retries and adds no
// timeout of its own; the http.Client's settings apply.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for the server at serverURL (scheme and host, with
// an optional path prefix).
func New(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url: missing host")
	}
	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) collectionURL() string {
	return c.base.JoinPath(BasePath).String()
}

func (c *Client) itemURL(id model.ID) string {
	return c.base.JoinPath(BasePath, url.PathEscape(id.String())).String()
}

// List fetches the full collection in server order.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	var out []model.Todo
	if err := c.do(ctx, OpList, http.MethodGet, c.collectionURL(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Todo{}
	}
	return out, nil
}

// Create posts a new todo. Empty text fails with ErrEmptyText and no request.
func (c *Client) Create(ctx context.Context, text string) (model.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, ErrEmptyText
	}
	var t model.Todo
	err := c.do(ctx, OpCreate, http.MethodPost, c.collectionURL(), textBody{Text: text}, &t)
	return t, err
}

// Toggle flips completion server-side. The request has no body.
func (c *Client) Toggle(ctx context.Context, id model.ID) (model.Todo, error) {
	var t model.Todo
	err := c.do(ctx, OpToggle, http.MethodPut, c.itemURL(id), nil, &t)
	return t, err
}

// UpdateText replaces the text of id. Empty text fails with ErrEmptyText and
// no request.
func (c *Client) UpdateText(ctx context.Context, id model.ID, text string) (model.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, ErrEmptyText
	}
	var t model.Todo
	err := c.do(ctx, OpEdit, http.MethodPut, c.itemURL(id), textBody{Text: text}, &t)
	return t, err
}

// Delete removes id. Any response body is ignored.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	return c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil, nil)
}

type textBody struct {
	Text string `json:"text"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, op Op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: json marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportErr(op, method, u, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request", "op", op, "method", method, "url", u, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Op: op, Code: resp.StatusCode}
		var eb errorBody
		if b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(b, &eb) == nil {
			se.Message = strings.TrimSpace(eb.Error)
		}
		c.logger.Warn("request rejected", "op", op, "method", method, "url", u, "status", se.Code, "message", se.Message)
		return se
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.transportErr(op, method, u, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) transportErr(op Op, method, u string, err error) error {
	if errors.Is(err, context.Canceled) {
		c.logger.Debug("request canceled", "op", op, "method", method, "url", u)
	} else {
		c.logger.Error("request failed", "op", op, "method", method, "url", u, "err", err)
	}
	return &TransportError{Op: op, Err: err}
}
