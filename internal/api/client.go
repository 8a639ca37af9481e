// Package api is the customer client's view of the backend REST surface.
package api

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
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/observability"
)

const maxBodySize = 1 << 20

// ErrInvalidID is returned before any request is made when a ride
// identifier is empty.
var ErrInvalidID = errors.New("invalid ride id")

// TokenSource supplies the session token attached to each request.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// Error is any failed backend call: a transport failure (StatusCode 0) or
// an unexpected response status. Message is the backend's message when it
// sent one and is meant for logs, not for display.
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: status %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from err, or 0 when there is none.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

type Config struct {
	BaseURL      string
	DirectoryURL string // defaults to BaseURL
	Timeout      time.Duration
	Tokens       TokenSource
	Logger       *slog.Logger
	HTTPClient   *http.Client
}

type Client struct {
	baseURL      string
	directoryURL string
	http         *http.Client
	tokens       TokenSource
	logger       *slog.Logger
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	dir := cfg.DirectoryURL
	if dir == "" {
		dir = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: cfg.BaseURL, directoryURL: dir, http: hc, tokens: cfg.Tokens, logger: logger}
}

// ListUsers fetches every registered user from the directory service.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	b, err := c.do(ctx, call{op: "fetch users", method: http.MethodGet, base: c.directoryURL, path: "/users", route: "/users"})
	if err != nil {
		return nil, err
	}
	return models.DecodeUsers(b)
}

// GetProfile fetches the signed-in user.
func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	b, err := c.do(ctx, call{op: "fetch profile", method: http.MethodGet, base: c.baseURL, path: "/profile", route: "/profile"})
	if err != nil {
		return nil, err
	}
	return models.DecodeUser(b)
}

func (c *Client) CreateRide(ctx context.Context, req models.RideRequest) (*models.Ride, error) {
	b, err := c.do(ctx, call{op: "request ride", method: http.MethodPost, base: c.baseURL, path: "/rides", route: "/rides", body: req})
	if err != nil {
		return nil, err
	}
	return models.DecodeRide(b)
}

func (c *Client) ListCustomerRides(ctx context.Context) ([]models.Ride, error) {
	b, err := c.do(ctx, call{op: "fetch rides", method: http.MethodGet, base: c.baseURL, path: "/rides", route: "/rides"})
	if err != nil {
		return nil, err
	}
	return models.DecodeRides(b)
}

func (c *Client) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	b, err := c.do(ctx, call{op: "fetch ride details", method: http.MethodGet, base: c.baseURL, path: "/rides/" + url.PathEscape(id), route: "/rides/{id}"})
	if err != nil {
		return nil, err
	}
	return models.DecodeRide(b)
}

// UpdateRideStatus patches a ride's status. Only HTTP 200 counts as
// success; the returned ride is nil when the backend sends no usable body.
func (c *Client) UpdateRideStatus(ctx context.Context, id string, status models.RideStatus) (*models.Ride, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	b, err := c.do(ctx, call{
		op:     "update ride status",
		method: http.MethodPatch,
		base:   c.baseURL,
		path:   "/rides/" + url.PathEscape(id),
		route:  "/rides/{id}",
		body:   models.StatusUpdate{Status: status},
		accept: func(code int) bool { return code == http.StatusOK },
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	r, derr := models.DecodeRide(b)
	if derr != nil {
		c.logger.Debug("status update body not decodable", "ride_id", id, "error", derr)
		return nil, nil
	}
	return r, nil
}

type call struct {
	op     string
	method string
	base   string
	path   string
	route  string
	body   any
	accept func(int) bool
}

func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	fail := func(code int, msg string, err error) *Error {
		return &Error{Op: cl.op, Method: cl.method, Path: cl.path, StatusCode: code, Message: msg, Err: err}
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fail(0, "", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, cl.base+cl.path, body)
	if err != nil {
		return nil, fail(0, "", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, ok, terr := c.tokens.Token(ctx)
		switch {
		case terr != nil:
			c.logger.Warn("session token unavailable, calling without it", "op", cl.op, "error", terr)
		case ok:
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.APIRequestDuration.WithLabelValues(cl.method, cl.route).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.APIRequestsTotal.WithLabelValues(cl.method, cl.route, "error").Inc()
		return nil, fail(0, "", err)
	}
	defer resp.Body.Close()
	observability.APIRequestsTotal.WithLabelValues(cl.method, cl.route, strconv.Itoa(resp.StatusCode)).Inc()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fail(0, "", err)
	}
	accept := cl.accept
	if accept == nil {
		accept = func(code int) bool { return code >= 200 && code < 300 }
	}
	if !accept(resp.StatusCode) {
		return nil, fail(resp.StatusCode, backendMessage(b, cl.op), nil)
	}
	return b, nil
}

func backendMessage(b []byte, op string) string {
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &out); err == nil && out.Message != "" {
		return out.Message
	}
	return "Failed to " + op
}
