package console

import (
	"log"
	"sync/atomic"
	"time"
)

// Queue buffers commands between the transports that receive them and the
// simulation goroutine that runs them. Enqueue never blocks.
type Queue struct {
	commands chan Command

	enqueued    atomic.Uint64
	processed   atomic.Uint64
	dropped     atomic.Uint64
	avgWaitTime atomic.Int64 // nanoseconds, exponential moving average
}

// NewQueue creates a queue holding up to size commands.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{commands: make(chan Command, size)}
}

// Enqueue adds cmd and reports whether it fit.
func (q *Queue) Enqueue(cmd Command) bool {
	if cmd.ReceivedAt.IsZero() {
		cmd.ReceivedAt = time.Now()
	}
	select {
	case q.commands <- cmd:
		q.enqueued.Add(1)
		return true
	default:
		if q.dropped.Add(1)%100 == 1 {
			log.Printf("⚠️ console queue full, dropped %q from %s (total dropped: %d)",
				cmd.Line, callerName(cmd.Caller), q.dropped.Load())
		}
		return false
	}
}

// Drain runs fn for every command queued right now and returns how many ran.
func (q *Queue) Drain(fn func(Command)) int {
	n := 0
	for {
		select {
		case cmd := <-q.commands:
			q.updateAvgWaitTime(time.Since(cmd.ReceivedAt))
			fn(cmd)
			q.processed.Add(1)
			n++
		default:
			return n
		}
	}
}

func (q *Queue) updateAvgWaitTime(wait time.Duration) {
	cur := q.avgWaitTime.Load()
	q.avgWaitTime.Store((cur*9 + wait.Nanoseconds()) / 10)
}

// Stats returns queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued:      q.enqueued.Load(),
		Processed:     q.processed.Load(),
		Dropped:       q.dropped.Load(),
		Pending:       uint64(len(q.commands)),
		BufferSize:    uint64(cap(q.commands)),
		AvgWaitTimeMs: float64(q.avgWaitTime.Load()) / 1e6,
	}
}

// QueueStats holds queue metrics.
type QueueStats struct {
	Enqueued      uint64  `json:"enqueued"`
	Processed     uint64  `json:"processed"`
	Dropped       uint64  `json:"dropped"`
	Pending       uint64  `json:"pending"`
	BufferSize    uint64  `json:"buffer_size"`
	AvgWaitTimeMs float64 `json:"avg_wait_time_ms"`
}
