package sched

import (
	"sync/atomic"
	"time"
)

// Counters aggregates process-lifetime activity numbers. All methods are safe
// for concurrent use; readers get a point-in-time snapshot.
type Counters struct {
	startedAt    time.Time
	updates      atomic.Int64
	actions      atomic.Int64
	sendFailures atomic.Int64
}

// NewCounters starts the uptime clock at the current instant.
func NewCounters() *Counters {
	return &Counters{startedAt: time.Now()}
}

// IncUpdates records one inbound update.
func (c *Counters) IncUpdates() { c.updates.Add(1) }

// IncActions records one dispatched outbound action.
func (c *Counters) IncActions() { c.actions.Add(1) }

// IncSendFailures records one dropped outbound action.
func (c *Counters) IncSendFailures() { c.sendFailures.Add(1) }

// Snapshot is a consistent-enough copy of the counters for reporting.
type Snapshot struct {
	Uptime       time.Duration
	Updates      int64
	Actions      int64
	SendFailures int64
}

// Snapshot reads the current values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Uptime:       time.Since(c.startedAt),
		Updates:      c.updates.Load(),
		Actions:      c.actions.Load(),
		SendFailures: c.sendFailures.Load(),
	}
}
