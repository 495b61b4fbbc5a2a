package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/hiven"
)

// Conn is the subset of *websocket.Conn a session uses.
//
// ReadMessage is only called from the reader goroutine; WriteMessage and
// SetWriteDeadline only from the socket pump. WriteControl and Close may be
// called concurrently with both.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// inbound is one result of conn.ReadMessage.
type inbound struct {
	kind int
	data []byte
	err  error
}

// readLoop forwards transport reads to out until a read fails or quit is closed.
func readLoop(conn Conn, out chan<- inbound, quit <-chan struct{}) {
	for {
		kind, data, err := conn.ReadMessage()
		select {
		case out <- inbound{kind: kind, data: data, err: err}:
		case <-quit:
			return
		}
		if err != nil {
			return
		}
	}
}

// readError maps a transport read error to the session error it ends with.
//
// A close frame becomes a SocketCloseError. A connection that dropped without a
// close frame (gorilla reports it as 1006) is a protocol expectation failure.
func readError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNoStatusReceived:
			return &hiven.SocketCloseError{}
		case websocket.CloseAbnormalClosure:
			return &hiven.ExpectationFailedError{Expected: hiven.ExpectTextOrClose, Observed: ce.Error()}
		default:
			return &hiven.SocketCloseError{Reason: &hiven.CloseReason{Code: ce.Code, Text: ce.Text}}
		}
	}
	return &hiven.ExpectationFailedError{Expected: hiven.ExpectTextOrClose, Observed: err.Error()}
}

// describeMessage names a non-text message for an ExpectationFailedError.
func describeMessage(kind int, data []byte) string {
	switch kind {
	case websocket.BinaryMessage:
		return fmt.Sprintf("binary message (%d bytes)", len(data))
	default:
		return fmt.Sprintf("message type %d", kind)
	}
}

// closeConn sends a normal close frame and closes the connection.
func closeConn(conn Conn) {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(hiven.CloseWriteTimeout)
	conn.WriteControl(websocket.CloseMessage, message, deadline)
	conn.Close()
}
