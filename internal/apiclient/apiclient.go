// Package apiclient talks to the remote student-registration API.
//
// It does no interpretation of its own: every answer, whatever its status,
// comes back as a Response for the controllers to map to a message. Only a
// failure to complete the exchange (DNS, refused connection, TLS, a body
// cut short) is an error, and it always wraps ErrTransport.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/metrics"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

// ErrTransport marks errors where no HTTP response could be read.
var ErrTransport = errors.New("apiclient: transport failure")

// Response is a raw answer from the API.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client holds the two endpoint URLs and the HTTP client used to reach them.
type Client struct {
	http        *http.Client
	registerURL string
	listURL     string
	log         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the given registration and listing endpoints.
func New(registerURL, listURL string, opts ...Option) *Client {
	c := &Client{
		http:        http.DefaultClient,
		registerURL: registerURL,
		listURL:     listURL,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register POSTs s as JSON to the registration endpoint.
func (c *Client) Register(ctx context.Context, s types.Student) (*Response, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("apiclient.Register: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registerURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("apiclient.Register: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "register")
}

// List GETs the listing endpoint.
func (c *Client) List(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient.List: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, "list")
}

func (c *Client) do(req *http.Request, operation string) (*Response, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(operation, status).
			Observe(time.Since(start).Seconds())
	}()

	c.log.Debug("calling registration api",
		slog.String("operation", operation),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	status = strconv.Itoa(resp.StatusCode)
	c.log.Debug("registration api answered",
		slog.String("operation", operation),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)))

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
