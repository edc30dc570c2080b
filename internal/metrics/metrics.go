// Package metrics provides lightweight, lock-free counters for tracking
// the console traffic and outcome of a single onboarding run.
//
// All methods are safe for concurrent use (the console receive pump
// records bytes from its own goroutine).  A nil *Collector is a valid
// no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a console session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	commandsSent  atomic.Int64
	bytesIn       atomic.Int64
	bytesOut      atomic.Int64
	waitNanos     atomic.Int64
	pollsMatched  atomic.Int64
	pollsExpired  atomic.Int64
	warningsTotal atomic.Int64
	errorsTotal   atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastStep     string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandSent records one command written to the console and the time
// spent waiting for its response.
func (c *Collector) CommandSent(wait time.Duration) {
	if c == nil {
		return
	}
	c.commandsSent.Add(1)
	c.waitNanos.Add(int64(wait))
}

// CommandsSent returns the number of commands written.
func (c *Collector) CommandsSent() int64 {
	if c == nil {
		return 0
	}
	return c.commandsSent.Load()
}

// WaitTime returns the total time spent waiting for responses.
func (c *Collector) WaitTime() time.Duration {
	if c == nil {
		return 0
	}
	return time.Duration(c.waitNanos.Load())
}

// PollResult records whether a polled command saw its expected output
// before the wait budget ran out.
func (c *Collector) PollResult(matched bool) {
	if c == nil {
		return
	}
	if matched {
		c.pollsMatched.Add(1)
	} else {
		c.pollsExpired.Add(1)
	}
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the console.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the console.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Outcome metrics ──────────────────────────────────────────────────

// StepStarted remembers the most recent pipeline step.
func (c *Collector) StepStarted(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lastStep = name
	c.mu.Unlock()
}

// RecordWarning increments the warning counter.
func (c *Collector) RecordWarning() {
	if c == nil {
		return
	}
	c.warningsTotal.Add(1)
}

// WarningCount returns the number of warnings recorded.
func (c *Collector) WarningCount() int64 {
	if c == nil {
		return 0
	}
	return c.warningsTotal.Load()
}

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Elapsed          string `json:"elapsed"`
	CommandsSent     int64  `json:"commands_sent"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	WaitTime         string `json:"wait_time"`
	PollsMatched     int64  `json:"polls_matched,omitempty"`
	PollsExpired     int64  `json:"polls_expired,omitempty"`
	WarningsTotal    int64  `json:"warnings_total"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastStep         string `json:"last_step,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Elapsed:       time.Since(c.startTime).Truncate(time.Second).String(),
		CommandsSent:  c.commandsSent.Load(),
		BytesIn:       c.bytesIn.Load(),
		BytesOut:      c.bytesOut.Load(),
		WaitTime:      time.Duration(c.waitNanos.Load()).Truncate(time.Millisecond).String(),
		PollsMatched:  c.pollsMatched.Load(),
		PollsExpired:  c.pollsExpired.Load(),
		WarningsTotal: c.warningsTotal.Load(),
		ErrorsTotal:   c.errorsTotal.Load(),
		LastStep:      c.lastStep,
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
