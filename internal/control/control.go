// Package control fans out decoder events and per-frame statistics
// records to interested consumers (the control socket, the receiver's
// log, tests).
package control

import (
	"sync"

	"github.com/openuv/videorx/internal/logger"
)

// Reporter distributes control-channel lines to subscribers. A nil
// Reporter is valid and discards everything.
type Reporter struct {
	mu   sync.RWMutex
	subs []chan string
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Subscribe registers a consumer. Slow consumers lose lines rather than
// stalling the decoder.
func (r *Reporter) Subscribe() <-chan string {
	ch := make(chan string, 128)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

func (r *Reporter) send(line string) {
	if r == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- line:
		default:
			logger.Debug("Control", "Subscriber full, dropping: %s", line)
		}
	}
}

// ReportStats emits one per-frame statistics record.
func (r *Reporter) ReportStats(line string) {
	r.send(line)
}

// ReportEvent emits a stream lifecycle event.
func (r *Reporter) ReportEvent(event string) {
	r.send(event)
}

// Close tears down all subscriptions.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
}
