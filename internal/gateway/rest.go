package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// apiError is the row API's error body.
type apiError struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type deleted struct {
	Deleted int `json:"deleted"`
}

// Client talks to the row API. Adapters share one Client.
type Client struct {
	http *resty.Client
	log  *zap.Logger
	now  func() time.Time
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock sets the clock used for progress timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewREST wires every adapter to one row API client.
func NewREST(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Gateway {
	c := NewClient(baseURL, apiKey, timeout, opts...)
	return &Gateway{
		Users:       &restUsers{c},
		Courses:     &restCourses{c},
		Lessons:     &restLessons{c},
		Enrollments: &restEnrollments{c},
		Progress:    &restProgress{c},
		Stats:       &restStats{c},
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&apiError{})
}

// check turns a resty outcome into nil or an *Error of the right kind.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.log.Warn("row api unreachable", zap.String("op", op), zap.Error(err))
		return &Error{Op: op, Message: err.Error(), Kind: ErrTransport}
	}
	if !resp.IsError() {
		return nil
	}
	msg := resp.Status()
	if body, ok := resp.Error().(*apiError); ok && body.Error != "" {
		msg = body.Error
	}
	kind := ErrTransport
	switch resp.StatusCode() {
	case http.StatusConflict:
		kind = ErrConstraint
	case http.StatusNotFound:
		kind = ErrNotFound
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		kind = ErrRejected
	}
	c.log.Warn("row api call failed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode()),
		zap.String("message", msg))
	return &Error{Op: op, Status: resp.StatusCode(), Message: msg, Kind: kind}
}

func (c *Client) list(ctx context.Context, op, table string, filters url.Values, out any) error {
	resp, err := c.request(ctx).
		SetQueryParamsFromValues(filters).
		SetResult(out).
		Get("/rest/" + table)
	return c.check(op, resp, err)
}

// get reports false when the row does not exist.
func (c *Client) get(ctx context.Context, op, table, id string, out any) (bool, error) {
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetResult(out).
		Get("/rest/" + table + "/{id}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if err := c.check(op, resp, err); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) create(ctx context.Context, op, table string, body, out any) error {
	resp, err := c.request(ctx).
		SetBody(body).
		SetResult(out).
		Post("/rest/" + table)
	return c.check(op, resp, err)
}

func (c *Client) patch(ctx context.Context, op, table, id string, body, out any) error {
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetBody(body).
		SetResult(out).
		Patch("/rest/" + table + "/{id}")
	return c.check(op, resp, err)
}

func (c *Client) remove(ctx context.Context, op, table, id string) (int, error) {
	var out deleted
	resp, err := c.request(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Delete("/rest/" + table + "/{id}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return 0, nil
	}
	if err := c.check(op, resp, err); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) removeWhere(ctx context.Context, op, table string, filters url.Values) (int, error) {
	var out deleted
	resp, err := c.request(ctx).
		SetQueryParamsFromValues(filters).
		SetResult(&out).
		Delete("/rest/" + table)
	if err := c.check(op, resp, err); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}
