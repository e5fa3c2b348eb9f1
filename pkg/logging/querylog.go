package logging

import (
	"sync"
	"time"
)

// QueryRecord describes one proxied query.
type QueryRecord struct {
	Seq      uint64        `json:"seq"`
	Time     time.Time     `json:"time"`
	Endpoint string        `json:"endpoint"`
	Command  string        `json:"command"`
	Remote   string        `json:"remote,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Bytes    int           `json:"bytes"`
	Error    string        `json:"error,omitempty"`
}

// QueryLog is a thread-safe ring buffer of recent queries.
type QueryLog struct {
	mu    sync.RWMutex
	buf   []QueryRecord
	size  int
	head  int // next write position
	count int
	seq   uint64

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// Subscription receives queries added after it was created.
type Subscription struct {
	C  chan QueryRecord
	ql *QueryLog
}

// Close unsubscribes. The channel is not closed.
func (s *Subscription) Close() {
	s.ql.unsubscribe(s)
}

// NewQueryLog creates a query log holding up to size records.
func NewQueryLog(size int) *QueryLog {
	if size < 1 {
		size = 1
	}
	return &QueryLog{
		buf:  make([]QueryRecord, size),
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Add stores rec, overwriting the oldest record when full, and returns it
// with its sequence number set. Slow subscribers miss records.
func (ql *QueryLog) Add(rec QueryRecord) QueryRecord {
	ql.mu.Lock()
	ql.seq++
	rec.Seq = ql.seq
	ql.buf[ql.head] = rec
	ql.head = (ql.head + 1) % ql.size
	if ql.count < ql.size {
		ql.count++
	}
	ql.mu.Unlock()

	ql.subMu.RLock()
	for sub := range ql.subs {
		select {
		case sub.C <- rec:
		default:
		}
	}
	ql.subMu.RUnlock()
	return rec
}

// Subscribe returns a Subscription with a channel of bufSize.
func (ql *QueryLog) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{
		C:  make(chan QueryRecord, bufSize),
		ql: ql,
	}
	ql.subMu.Lock()
	ql.subs[sub] = struct{}{}
	ql.subMu.Unlock()
	return sub
}

func (ql *QueryLog) unsubscribe(sub *Subscription) {
	ql.subMu.Lock()
	delete(ql.subs, sub)
	ql.subMu.Unlock()
}

// Latest returns the most recent n records, newest first.
func (ql *QueryLog) Latest(n int) []QueryRecord {
	ql.mu.RLock()
	defer ql.mu.RUnlock()

	if n > ql.count {
		n = ql.count
	}
	if n <= 0 {
		return nil
	}
	result := make([]QueryRecord, n)
	for i := 0; i < n; i++ {
		idx := (ql.head - 1 - i + ql.size) % ql.size
		result[i] = ql.buf[idx]
	}
	return result
}

// Len returns the number of stored records.
func (ql *QueryLog) Len() int {
	ql.mu.RLock()
	defer ql.mu.RUnlock()
	return ql.count
}
