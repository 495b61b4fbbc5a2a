package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/hiven"
	"github.com/luciancaetano/hiven/internal/protocol"
)

// errDispatcherGone stops the pump when the dispatcher exits while the pump is
// blocked handing it a frame.
var errDispatcherGone = errors.New("dispatcher stopped")

// pump bridges the socket and the two queues. It is the sole producer of
// ingress and closes it on return.
//
// It returns nil after a Shutdown request (or a closed egress), ctx.Err() on
// cancellation, and the terminal transport error otherwise.
func (s *Session) pump(ctx context.Context, conn Conn, ingress chan<- protocol.Frame, egress <-chan outbound, dispatchDone <-chan struct{}) error {
	defer close(ingress)

	quit := make(chan struct{})
	defer close(quit)

	reads := make(chan inbound)
	go readLoop(conn, reads, quit)

	for {
		select {
		case <-ctx.Done():
			closeConn(conn)
			return ctx.Err()

		case in := <-reads:
			if err := s.receive(ctx, in, ingress, dispatchDone); err != nil {
				closeConn(conn)
				if errors.Is(err, errDispatcherGone) {
					return nil
				}
				return err
			}

		case item, ok := <-egress:
			if !ok || item.shutdown {
				closeConn(conn)
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(hiven.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, protocol.MustEncode(item.frame)); err != nil {
				conn.Close()
				return fmt.Errorf("writing %s: %w", item.frame.Op(), err)
			}
		}
	}
}

// receive handles one transport read: text frames are parsed and queued on
// ingress, anything else ends the session.
func (s *Session) receive(ctx context.Context, in inbound, ingress chan<- protocol.Frame, dispatchDone <-chan struct{}) error {
	if in.err != nil {
		return readError(in.err)
	}
	if in.kind != websocket.TextMessage {
		return expectationFailed(hiven.ExpectTextOrClose, describeMessage(in.kind, in.data))
	}

	frame, err := protocol.Decode(in.data)
	if err != nil {
		// Frames the client does not model yet are dropped, not fatal.
		s.dropLog.Do(func() {
			s.logger.Debug("dropping unparsable gateway frame", "error", err, "size", len(in.data))
		})
		return nil
	}

	select {
	case ingress <- frame:
		return nil
	case <-dispatchDone:
		return errDispatcherGone
	case <-ctx.Done():
		return ctx.Err()
	}
}
