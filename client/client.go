// Package client connects to Hiven: it runs the gateway session and exposes
// the REST operations handlers use to act on events.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/hiven"
	"github.com/luciancaetano/hiven/internal/gateway"
	"github.com/luciancaetano/hiven/internal/rest"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	apiBaseURL string
	gatewayURL string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *slog.Logger
	queueSize  int
}

// WithAPIHost sets the REST host. Requests go to https://<host>/v1.
func WithAPIHost(host string) Option {
	return func(o *options) {
		o.apiBaseURL = (&url.URL{Scheme: "https", Host: host, Path: hiven.APIVersionPath}).String()
	}
}

// WithGatewayHost sets the gateway host. The socket is wss://<host>/socket.
func WithGatewayHost(host string) Option {
	return func(o *options) {
		o.gatewayURL = (&url.URL{Scheme: "wss", Host: host, Path: hiven.GatewayPath}).String()
	}
}

// WithAPIBaseURL sets the full REST base URL, version prefix included.
func WithAPIBaseURL(baseURL string) Option {
	return func(o *options) { o.apiBaseURL = baseURL }
}

// WithGatewayURL sets the full gateway socket URL.
func WithGatewayURL(gatewayURL string) Option {
	return func(o *options) { o.gatewayURL = gatewayURL }
}

// WithHTTPClient sets the HTTP client used for REST calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDialer sets the WebSocket dialer used for the gateway.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueueSize sets the capacity of the gateway session queues.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// Client is a Hiven client bound to one token.
//
// Client implements hiven.REST; the same value is handed to every event
// handler call, so handlers can answer events through it.
type Client struct {
	token string
	opts  options
	rest  *rest.Client
}

var _ hiven.REST = (*Client)(nil)

// New creates a client for token.
//
// Example:
//
//	c := client.New(os.Getenv("HIVEN_TOKEN"), client.WithLogger(logger))
//	err := c.Start(ctx, &myHandler{})
func New(token string, opts ...Option) *Client {
	o := options{logger: slog.Default()}
	WithAPIHost(hiven.DefaultAPIHost)(&o)
	WithGatewayHost(hiven.DefaultGatewayHost)(&o)
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		token: token,
		opts:  o,
		rest:  rest.New(o.apiBaseURL, token, o.httpClient),
	}
}

// Start connects to the gateway and delivers events to handler until the
// session ends. It does not reconnect.
//
// Returns nil on a clean shutdown, ctx.Err() when ctx is cancelled, or the
// error that ended the session: *hiven.SocketCloseError when the server closed
// the socket, *hiven.ExpectationFailedError on a protocol violation.
func (c *Client) Start(ctx context.Context, handler hiven.EventHandler) error {
	session := gateway.NewSession(&gateway.Config{
		URL:       c.opts.gatewayURL,
		Token:     c.token,
		Handler:   handler,
		REST:      c,
		Dialer:    c.opts.dialer,
		Logger:    c.opts.logger,
		QueueSize: c.opts.queueSize,
	})
	return session.Run(ctx)
}

// SendMessage posts content to a room.
func (c *Client) SendMessage(ctx context.Context, roomID hiven.Snowflake, content string) error {
	return c.rest.SendMessage(ctx, roomID, content)
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*hiven.User, error) {
	return c.rest.CurrentUser(ctx)
}
