package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/luciancaetano/hiven"
	"github.com/luciancaetano/hiven/internal/protocol"
)

func expectationFailed(expected, observed string) error {
	return &hiven.ExpectationFailedError{Expected: expected, Observed: observed}
}

// dispatch consumes ingress, drives the handshake and delivers events to the
// handler one at a time. It is the sole consumer of ingress and, once the
// heartbeat has stopped, the sole producer of egress, which it closes on return.
func (s *Session) dispatch(ctx context.Context, ingress <-chan protocol.Frame, egress chan<- outbound, pumpDone <-chan struct{}) error {
	var beat *heartbeat
	defer func() {
		if beat != nil {
			beat.stop()
		}
		s.setState(StateTerminated)

		// Best effort: the pump may be gone or egress full.
		select {
		case egress <- outbound{shutdown: true}:
		default:
		}
		close(egress)
	}()

	for frame := range ingress {
		switch s.State() {
		case StateAwaitingHello:
			hello, ok := frame.(*protocol.Hello)
			if !ok {
				return expectationFailed(hiven.ExpectHello, frame.String())
			}
			if hello.HeartbeatInterval == 0 {
				return expectationFailed(hiven.ExpectPositiveHeartbeat, hello.String())
			}

			// Login is queued before the ticker exists, so it is always written first.
			if err := send(egress, pumpDone, &protocol.Login{Token: s.token}); err != nil {
				return err
			}
			interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
			beat = startHeartbeat(interval, egress, pumpDone)
			s.setState(StateAwaitingEvents)
			s.logger.Debug("gateway handshake complete", "heartbeat_interval", interval)

		case StateAwaitingEvents:
			event, ok := frame.(*protocol.Event)
			if !ok {
				return expectationFailed(hiven.ExpectEvent, frame.String())
			}
			s.deliver(ctx, event)
		}
	}

	// Ingress closed by the pump.
	return nil
}

// deliver calls the handler method for the event and waits for it to return.
func (s *Session) deliver(ctx context.Context, event *protocol.Event) {
	switch payload := event.Payload.(type) {
	case *hiven.InitState:
		s.handler.OnConnect(ctx, s.rest, payload)
	case *hiven.House:
		s.handler.OnHouseJoin(ctx, s.rest, payload)
	case *hiven.TypingStart:
		s.handler.OnTyping(ctx, s.rest, payload)
	case *hiven.Message:
		s.handler.OnMessage(ctx, s.rest, payload)
	default:
		s.logger.Warn("event without handler", "event", event.Name, "payload", fmt.Sprintf("%T", payload))
	}
}

// send queues a frame on egress, failing if the pump has already stopped.
func send(egress chan<- outbound, pumpDone <-chan struct{}, frame protocol.Frame) error {
	select {
	case <-pumpDone:
		return egressClosed(frame)
	default:
	}

	select {
	case egress <- outbound{frame: frame}:
		return nil
	case <-pumpDone:
		return egressClosed(frame)
	}
}

func egressClosed(frame protocol.Frame) error {
	return &hiven.InternalChannelError{Context: fmt.Sprintf("egress closed while sending %s", frame.Op())}
}
