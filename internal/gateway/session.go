package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/hiven"
	"github.com/luciancaetano/hiven/internal/protocol"
)

// State is the dispatcher's position in the handshake.
type State int32

const (
	StateAwaitingHello State = iota
	StateAwaitingEvents
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingHello:
		return "awaiting_hello"
	case StateAwaitingEvents:
		return "awaiting_events"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config configures a gateway session.
type Config struct {
	// URL of the gateway socket, e.g. wss://swarm-dev.hiven.io/socket
	URL string
	// Token is sent in the Login frame
	Token string
	// Handler receives events. Defaults to hiven.NopHandler.
	Handler hiven.EventHandler
	// REST is passed to every handler call
	REST hiven.REST
	// Dialer opens the socket. Defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// Logger defaults to slog.Default()
	Logger *slog.Logger
	// QueueSize is the capacity of the ingress and egress queues. Defaults to hiven.DefaultQueueSize.
	QueueSize int
}

// outbound is an egress item: a frame to write, or a request to close the socket.
type outbound struct {
	frame    protocol.Frame
	shutdown bool
}

// Session owns one gateway connection from dial to termination. It is not
// reusable: create a new Session for every connection.
type Session struct {
	id        string
	url       string
	token     string
	handler   hiven.EventHandler
	rest      hiven.REST
	dialer    *websocket.Dialer
	logger    *slog.Logger
	queueSize int

	state   atomic.Int32
	dropLog rate.Sometimes
}

// NewSession creates a session from cfg, filling in defaults.
func NewSession(cfg *Config) *Session {
	handler := cfg.Handler
	if handler == nil {
		handler = hiven.NopHandler{}
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = hiven.DefaultQueueSize
	}

	id := uuid.New().String()
	return &Session{
		id:        id,
		url:       cfg.URL,
		token:     cfg.Token,
		handler:   handler,
		rest:      cfg.REST,
		dialer:    dialer,
		logger:    logger.With("session_id", id),
		queueSize: queueSize,
		dropLog:   rate.Sometimes{First: 5, Interval: 30 * time.Second},
	}
}

// ID returns the session's unique identifier, used in its log lines.
func (s *Session) ID() string {
	return s.id
}

// State returns the dispatcher state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Run dials the gateway and serves the session until it terminates.
//
// It returns nil when the session ends cleanly, ctx.Err() when ctx is
// cancelled, or the first error observed. When both the socket pump and the
// dispatcher fail, the dispatcher's error is returned.
func (s *Session) Run(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.setState(StateTerminated)
		return fmt.Errorf("dialing gateway: %w", err)
	}
	conn.SetReadLimit(protocol.MaxFrameSize)

	return s.Serve(ctx, conn)
}

// Serve runs the session over an already connected socket. The session takes
// ownership of conn and closes it before returning.
func (s *Session) Serve(ctx context.Context, conn Conn) error {
	ingress := make(chan protocol.Frame, s.queueSize)
	egress := make(chan outbound, s.queueSize)
	pumpDone := make(chan struct{})
	dispatchDone := make(chan struct{})

	s.logger.Info("gateway session started", "url", s.url)

	var pumpErr, dispatchErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(pumpDone)
		pumpErr = s.pump(ctx, conn, ingress, egress, dispatchDone)
	}()
	go func() {
		defer wg.Done()
		defer close(dispatchDone)
		dispatchErr = s.dispatch(ctx, ingress, egress, pumpDone)
	}()
	wg.Wait()

	err := firstError(dispatchErr, pumpErr)
	if err != nil {
		s.logger.Info("gateway session ended", "error", err)
	} else {
		s.logger.Info("gateway session ended")
	}
	return err
}

// firstError prefers the dispatcher's error: a pump error seen alongside it is
// a consequence of the same failure. The exception is an InternalChannelError,
// which only means the pump stopped first; the pump's error then explains why.
func firstError(dispatchErr, pumpErr error) error {
	var chErr *hiven.InternalChannelError
	if errors.As(dispatchErr, &chErr) && pumpErr != nil {
		return pumpErr
	}
	if dispatchErr != nil {
		return dispatchErr
	}
	return pumpErr
}
