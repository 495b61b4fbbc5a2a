package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/hiven"
	"github.com/luciancaetano/hiven/internal/protocol"
)

// egressLog drains egress until the dispatcher closes it.
type egressLog struct {
	mu    sync.Mutex
	items []outbound
	done  chan struct{}
}

func collectEgress(egress <-chan outbound) *egressLog {
	l := &egressLog{done: make(chan struct{})}
	go func() {
		defer close(l.done)
		for item := range egress {
			l.mu.Lock()
			l.items = append(l.items, item)
			l.mu.Unlock()
		}
	}()
	return l
}

func (l *egressLog) wait(t *testing.T) []outbound {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("egress was not closed")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items
}

func messageEvent(id hiven.Snowflake) *protocol.Event {
	return &protocol.Event{Name: protocol.EventMessageCreate, Payload: &hiven.Message{ID: id}}
}

func newTestSession(handler hiven.EventHandler) *Session {
	return NewSession(&Config{Token: "T", Handler: handler, Logger: testLogger()})
}

func TestDispatchPreservesEventOrder(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	rec.delay = 2 * time.Millisecond
	s := newTestSession(rec)

	ingress := make(chan protocol.Frame, 16)
	egress := make(chan outbound, 16)
	log := collectEgress(egress)

	ingress <- &protocol.Hello{HeartbeatInterval: 3600000}
	for i := 1; i <= 10; i++ {
		ingress <- messageEvent(hiven.Snowflake(i))
	}
	close(ingress)

	err := s.dispatch(context.Background(), ingress, egress, make(chan struct{}))
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 10)
	for i, msg := range msgs {
		assert.Equal(t, hiven.Snowflake(i+1), msg.ID)
	}
	assert.Equal(t, int32(1), rec.maxFlight.Load(), "handlers must not overlap")

	items := log.wait(t)
	require.Len(t, items, 2)
	assert.Equal(t, &protocol.Login{Token: "T"}, items[0].frame)
	assert.True(t, items[1].shutdown)
	assert.Equal(t, StateTerminated, s.State())
}

func TestDispatchRoutesByTag(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := newTestSession(rec)

	ingress := make(chan protocol.Frame, 8)
	egress := make(chan outbound, 8)
	collectEgress(egress)

	ingress <- &protocol.Hello{HeartbeatInterval: 3600000}
	ingress <- &protocol.Event{Name: protocol.EventInitState, Payload: &hiven.InitState{}}
	ingress <- &protocol.Event{Name: protocol.EventHouseJoin, Payload: &hiven.House{}}
	ingress <- &protocol.Event{Name: protocol.EventTypingStart, Payload: &hiven.TypingStart{}}
	ingress <- messageEvent(1)
	close(ingress)

	require.NoError(t, s.dispatch(context.Background(), ingress, egress, make(chan struct{})))
	assert.Equal(t, []string{"connect", "house_join", "typing", "message"}, rec.Calls())
}

func TestDispatchRejectsEventBeforeHello(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := newTestSession(rec)

	ingress := make(chan protocol.Frame, 2)
	egress := make(chan outbound, 2)
	log := collectEgress(egress)

	ingress <- messageEvent(1)

	err := s.dispatch(context.Background(), ingress, egress, make(chan struct{}))

	var expErr *hiven.ExpectationFailedError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, hiven.ExpectHello, expErr.Expected)

	items := log.wait(t)
	require.Len(t, items, 1)
	assert.True(t, items[0].shutdown, "no Login may be queued")
	assert.Empty(t, rec.Calls())
}

func TestDispatchRejectsControlFramesAfterHello(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame protocol.Frame
	}{
		{name: "hello", frame: &protocol.Hello{HeartbeatInterval: 10}},
		{name: "login", frame: &protocol.Login{Token: "x"}},
		{name: "heartbeat", frame: &protocol.Heartbeat{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(nil)
			ingress := make(chan protocol.Frame, 2)
			egress := make(chan outbound, 4)
			collectEgress(egress)

			ingress <- &protocol.Hello{HeartbeatInterval: 3600000}
			ingress <- tt.frame

			err := s.dispatch(context.Background(), ingress, egress, make(chan struct{}))

			var expErr *hiven.ExpectationFailedError
			require.ErrorAs(t, err, &expErr)
			assert.Equal(t, hiven.ExpectEvent, expErr.Expected)
			assert.Equal(t, tt.frame.String(), expErr.Observed)
		})
	}
}

func TestDispatchIngressClosedBeforeHello(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	ingress := make(chan protocol.Frame)
	egress := make(chan outbound, 1)
	log := collectEgress(egress)
	close(ingress)

	require.NoError(t, s.dispatch(context.Background(), ingress, egress, make(chan struct{})))

	items := log.wait(t)
	require.Len(t, items, 1)
	assert.True(t, items[0].shutdown)
}

func TestDispatchHeartbeatsFollowLogin(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	ingress := make(chan protocol.Frame, 1)
	egress := make(chan outbound, 4)
	log := collectEgress(egress)

	ingress <- &protocol.Hello{HeartbeatInterval: 10}

	errCh := make(chan error, 1)
	go func() { errCh <- s.dispatch(context.Background(), ingress, egress, make(chan struct{})) }()

	time.Sleep(55 * time.Millisecond)
	close(ingress)
	require.NoError(t, <-errCh)

	items := log.wait(t)
	require.GreaterOrEqual(t, len(items), 5, "login, at least three beats, shutdown")
	assert.Equal(t, protocol.OpLogin, items[0].frame.Op())
	for _, item := range items[1 : len(items)-1] {
		require.NotNil(t, item.frame)
		assert.Equal(t, protocol.OpHeartbeat, item.frame.Op())
	}
	assert.True(t, items[len(items)-1].shutdown, "shutdown must be the last item")
}

func TestDispatchLoginAfterPumpStopped(t *testing.T) {
	t.Parallel()

	s := newTestSession(nil)
	ingress := make(chan protocol.Frame, 1)
	egress := make(chan outbound, 1)
	egress <- outbound{frame: &protocol.Heartbeat{}} // full

	pumpDone := make(chan struct{})
	close(pumpDone)
	ingress <- &protocol.Hello{HeartbeatInterval: 1000}

	err := s.dispatch(context.Background(), ingress, egress, pumpDone)

	var chErr *hiven.InternalChannelError
	require.ErrorAs(t, err, &chErr)
	assert.Contains(t, chErr.Context, "Login")
}
