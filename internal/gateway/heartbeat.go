package gateway

import (
	"time"

	"github.com/luciancaetano/hiven/internal/protocol"
)

// heartbeat queues a Heartbeat frame on egress every interval until stopped.
type heartbeat struct {
	stopCh chan struct{}
	done   chan struct{}
}

func startHeartbeat(interval time.Duration, egress chan<- outbound, pumpDone <-chan struct{}) *heartbeat {
	h := &heartbeat{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go h.run(interval, egress, pumpDone)
	return h
}

func (h *heartbeat) run(interval time.Duration, egress chan<- outbound, pumpDone <-chan struct{}) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}
		select {
		case <-h.stopCh:
			return
		default:
		}

		// A full egress delays the beat rather than dropping it.
		select {
		case egress <- outbound{frame: &protocol.Heartbeat{}}:
		case <-h.stopCh:
			return
		case <-pumpDone:
			return
		}
	}
}

// stop cancels the ticker and waits for it to exit. No beat is queued after
// stop returns. It must be called once.
func (h *heartbeat) stop() {
	close(h.stopCh)
	<-h.done
}
