package hiven

import "time"

// Default service endpoints.
const (
	DefaultAPIHost     = "api.hiven.io"
	DefaultGatewayHost = "swarm-dev.hiven.io"

	// GatewayPath is the WebSocket path on the gateway host
	GatewayPath = "/socket"
	// APIVersionPath prefixes every REST route
	APIVersionPath = "/v1"
)

// Gateway session defaults.
const (
	// DefaultQueueSize is the capacity of the ingress and egress queues of a session
	DefaultQueueSize = 5

	// CloseWriteTimeout bounds how long a session waits to write its close frame
	CloseWriteTimeout = time.Second

	// WriteTimeout bounds every frame write to the gateway
	WriteTimeout = 10 * time.Second
)

// Expectation labels reported in ExpectationFailedError.Expected
const (
	ExpectHello             = "Hello"
	ExpectEvent             = "event"
	ExpectTextOrClose       = "text or close"
	ExpectPositiveHeartbeat = "positive heartbeat interval"
)

// Standard error messages
const (
	ErrExpectationFailed = "expectation failed"
	ErrSocketClosed      = "gateway socket closed"
	ErrInternalChannel   = "internal channel error"
	ErrAPIRequest        = "api request failed"
)
