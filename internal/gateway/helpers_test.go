package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/hiven"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder is an EventHandler that records every call.
type recorder struct {
	mu        sync.Mutex
	calls     []string
	messages  []*hiven.Message
	inflight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
	onMessage chan *hiven.Message
}

func newRecorder() *recorder {
	return &recorder{onMessage: make(chan *hiven.Message, 64)}
}

func (r *recorder) enter(name string) func() {
	n := r.inflight.Add(1)
	for {
		cur := r.maxFlight.Load()
		if n <= cur || r.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return func() { r.inflight.Add(-1) }
}

func (r *recorder) OnConnect(ctx context.Context, rest hiven.REST, state *hiven.InitState) {
	defer r.enter("connect")()
}

func (r *recorder) OnHouseJoin(ctx context.Context, rest hiven.REST, house *hiven.House) {
	defer r.enter("house_join")()
}

func (r *recorder) OnTyping(ctx context.Context, rest hiven.REST, typing *hiven.TypingStart) {
	defer r.enter("typing")()
}

func (r *recorder) OnMessage(ctx context.Context, rest hiven.REST, msg *hiven.Message) {
	defer r.enter("message")()
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.onMessage <- msg
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Messages() []*hiven.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*hiven.Message(nil), r.messages...)
}

// fakeGateway serves one scripted gateway connection per test.
type fakeGateway struct {
	srv *httptest.Server
}

func newFakeGateway(t *testing.T, script func(conn *websocket.Conn, frames <-chan string)) *fakeGateway {
	t.Helper()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(hiven.GatewayPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(conn, readFrames(conn))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &fakeGateway{srv: srv}
}

func (g *fakeGateway) URL() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http") + hiven.GatewayPath
}

// readFrames delivers every text frame the client writes. The channel is
// closed when the client closes the socket.
func readFrames(conn *websocket.Conn) <-chan string {
	frames := make(chan string, 64)
	go func() {
		defer close(frames)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage {
				frames <- string(data)
			}
		}
	}()
	return frames
}

func writeText(conn *websocket.Conn, frame string) error {
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func writeClose(conn *websocket.Conn, code int, text string) error {
	return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}

// nextFrame waits for the next client frame, returning "" on timeout or close.
func nextFrame(frames <-chan string, timeout time.Duration) string {
	select {
	case f := <-frames:
		return f
	case <-time.After(timeout):
		return ""
	}
}

// drain collects the remaining client frames until the client closes the socket.
func drain(frames <-chan string, timeout time.Duration) []string {
	var out []string
	deadline := time.After(timeout)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-deadline:
			return out
		}
	}
}

func runSession(t *testing.T, url string, handler hiven.EventHandler) (*Session, error) {
	t.Helper()

	s := NewSession(&Config{
		URL:     url,
		Token:   "T",
		Handler: handler,
		Logger:  testLogger(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s, s.Run(ctx)
}

// scriptedConn is an in-memory Conn whose reads are fed by the test.
type scriptedConn struct {
	reads     chan inbound
	written   chan write
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	deadline time.Time
}

// write is one frame written by the session and the write deadline in force.
type write struct {
	frame    string
	deadline time.Time
}

func newScriptedConn(reads ...inbound) *scriptedConn {
	c := &scriptedConn{
		reads:   make(chan inbound, 16),
		written: make(chan write, 16),
		closed:  make(chan struct{}),
	}
	for _, in := range reads {
		c.reads <- in
	}
	return c
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	select {
	case in := <-c.reads:
		return in.kind, in.data, in.err
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *scriptedConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	c.mu.Lock()
	w := write{frame: string(data), deadline: c.deadline}
	c.mu.Unlock()
	select {
	case c.written <- w:
	default:
	}
	return nil
}

func (c *scriptedConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *scriptedConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (c *scriptedConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func textRead(frame string) inbound {
	return inbound{kind: websocket.TextMessage, data: []byte(frame)}
}

func closeRead(code int, text string) inbound {
	return inbound{err: &websocket.CloseError{Code: code, Text: text}}
}
