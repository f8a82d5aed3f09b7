// Package metrics provides lightweight, lock-free counters for tracking
// the runtime statistics of an FTP session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks session and transfer metrics.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	bytesDown      atomic.Int64
	bytesUp        atomic.Int64
	filesDown      atomic.Int64
	filesUp        atomic.Int64
	deletes        atomic.Int64
	listings       atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened records a successful login.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed records a session being discarded.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the current number of live sessions (0 or 1
// for a single manager).
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// ── Transfer metrics ─────────────────────────────────────────────────

// Downloaded records one completed download of n bytes.
func (c *Collector) Downloaded(n int64) {
	if c == nil {
		return
	}
	c.filesDown.Add(1)
	c.bytesDown.Add(n)
}

// Uploaded records one completed upload of n bytes.
func (c *Collector) Uploaded(n int64) {
	if c == nil {
		return
	}
	c.filesUp.Add(1)
	c.bytesUp.Add(n)
}

// Deleted records one remote removal.
func (c *Collector) Deleted() {
	if c == nil {
		return
	}
	c.deletes.Add(1)
}

// Listed records one directory listing.
func (c *Collector) Listed() {
	if c == nil {
		return
	}
	c.listings.Add(1)
}

// BytesDownloaded returns total bytes fetched.
func (c *Collector) BytesDownloaded() int64 {
	if c == nil {
		return 0
	}
	return c.bytesDown.Load()
}

// BytesUploaded returns total bytes stored.
func (c *Collector) BytesUploaded() int64 {
	if c == nil {
		return 0
	}
	return c.bytesUp.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

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
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	FilesDownloaded  int64  `json:"files_downloaded"`
	BytesDownloaded  int64  `json:"bytes_downloaded"`
	FilesUploaded    int64  `json:"files_uploaded"`
	BytesUploaded    int64  `json:"bytes_uploaded"`
	Deletes          int64  `json:"deletes"`
	Listings         int64  `json:"listings"`
	ErrorsTotal      int64  `json:"errors_total"`
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
		Uptime:          time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:  c.sessionsActive.Load(),
		SessionsTotal:   c.sessionsTotal.Load(),
		FilesDownloaded: c.filesDown.Load(),
		BytesDownloaded: c.bytesDown.Load(),
		FilesUploaded:   c.filesUp.Load(),
		BytesUploaded:   c.bytesUp.Load(),
		Deletes:         c.deletes.Load(),
		Listings:        c.listings.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
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
