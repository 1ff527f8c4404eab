package jobs

import (
	"sync"

	"github.com/google/uuid"
)

// Sink receives live progress snapshots for one job. A Send error means the
// consumer is gone; the notifier ignores it.
type Sink interface {
	Send(snapshot Snapshot) error
}

// Notifier is a process-local registry mapping a job id to its live-update
// sinks. It is a latency optimization over polling: non-durable, lost on
// restart, never the sole channel of truth.
type Notifier struct {
	mu    sync.RWMutex
	sinks map[uuid.UUID][]Sink
}

func NewNotifier() *Notifier {
	return &Notifier{
		sinks: make(map[uuid.UUID][]Sink),
	}
}

// Register attaches a sink to a job id.
func (n *Notifier) Register(jobID uuid.UUID, sink Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks[jobID] = append(n.sinks[jobID], sink)
}

// Unregister drops every sink for a job id. Called on every terminal
// transition so abandoned jobs cannot leak registry entries.
func (n *Notifier) Unregister(jobID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.sinks, jobID)
}

// Remove detaches a single sink, used when a stream consumer disconnects
// before the job reaches a terminal state.
func (n *Notifier) Remove(jobID uuid.UUID, sink Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	remaining := n.sinks[jobID][:0]
	for _, s := range n.sinks[jobID] {
		if s != sink {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		delete(n.sinks, jobID)
		return
	}
	n.sinks[jobID] = remaining
}

// Publish delivers a snapshot to every sink registered for the job.
// Best-effort: a disconnected consumer's write error is swallowed.
func (n *Notifier) Publish(jobID uuid.UUID, snapshot Snapshot) {
	n.mu.RLock()
	sinks := make([]Sink, len(n.sinks[jobID]))
	copy(sinks, n.sinks[jobID])
	n.mu.RUnlock()

	for _, sink := range sinks {
		_ = sink.Send(snapshot)
	}
}
