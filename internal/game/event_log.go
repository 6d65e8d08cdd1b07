package game

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024
	MaxEventsPerSec      = 10000
	MaxEventsPerSource   = 100
	BatchFlushSize       = 64
	BatchFlushInterval   = 100 * time.Millisecond
	SourceLimiterCleanup = 5 * time.Minute
)

// EventLog writes events as JSON lines from a background goroutine. Emit
// never blocks the simulation: when the buffer is full or a source is too
// chatty the event is dropped and counted.
type EventLog struct {
	events chan Event
	seq    atomic.Uint64

	globalLimiter  *rate.Limiter
	sourceLimiters sync.Map // source -> *sourceLimiter

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    io.Writer
	closer io.Closer

	dropped atomic.Uint64
	total   atomic.Uint64
	written atomic.Uint64
}

type sourceLimiter struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

func NewEventLog() *EventLog {
	return &EventLog{
		events:        make(chan Event, EventBufferSize),
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens path for append and starts the writer. An empty path keeps
// counting events without writing them.
func (el *EventLog) Start(path string) error {
	if path == "" {
		return el.StartWriter(io.Discard)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	el.closer = f
	return el.StartWriter(f)
}

// StartWriter starts the writer goroutine on w.
func (el *EventLog) StartWriter(w io.Writer) error {
	if el.running.Swap(true) {
		return nil
	}
	el.out = w
	el.wg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Swap(false) {
			return
		}
		close(el.stopChan)
		el.wg.Wait()
		if el.closer != nil {
			el.closer.Close()
		}
	})
}

// Emit queues e. It reports false when the event was dropped.
func (el *EventLog) Emit(e Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		el.dropped.Add(1)
		return false
	}
	if e.Source != "" && !el.limiterFor(e.Source).Allow() {
		el.dropped.Add(1)
		return false
	}

	e.Sequence = el.seq.Add(1)
	select {
	case el.events <- e:
		el.total.Add(1)
		return true
	default:
		el.dropped.Add(1)
		return false
	}
}

// EmitSimple builds and emits an event.
func (el *EventLog) EmitSimple(t EventType, tick uint64, source string, payload any) bool {
	if !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(t, tick, source, payload))
}

func (el *EventLog) limiterFor(source string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.sourceLimiters.Load(source); ok {
		sl := v.(*sourceLimiter)
		sl.lastUsed.Store(now)
		return sl.limiter
	}
	sl := &sourceLimiter{limiter: rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10)}
	sl.lastUsed.Store(now)
	actual, _ := el.sourceLimiters.LoadOrStore(source, sl)
	return actual.(*sourceLimiter).limiter
}

func (el *EventLog) writerLoop() {
	defer el.wg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	bw := bufio.NewWriter(el.out)
	enc := json.NewEncoder(bw)
	pending := 0

	write := func(e Event) {
		if err := enc.Encode(e); err == nil {
			el.written.Add(1)
		}
		pending++
		if pending >= BatchFlushSize {
			bw.Flush()
			pending = 0
		}
	}

	for {
		select {
		case e := <-el.events:
			write(e)
		case <-ticker.C:
			if pending > 0 {
				bw.Flush()
				pending = 0
			}
		case <-el.stopChan:
			for {
				select {
				case e := <-el.events:
					write(e)
				default:
					bw.Flush()
					return
				}
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.wg.Done()

	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-SourceLimiterCleanup).UnixNano()
			el.sourceLimiters.Range(func(k, v any) bool {
				if v.(*sourceLimiter).lastUsed.Load() < cutoff {
					el.sourceLimiters.Delete(k)
				}
				return true
			})
		}
	}
}

// EventLogStats are the log's counters.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Pending int    `json:"pending"`
	Running bool   `json:"running"`
}

func (el *EventLog) Stats() EventLogStats {
	return EventLogStats{
		Total:   el.total.Load(),
		Written: el.written.Load(),
		Dropped: el.dropped.Load(),
		Pending: len(el.events),
		Running: el.running.Load(),
	}
}
