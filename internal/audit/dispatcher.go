package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "audit_events_dropped_total",
	Help: "Audit events dropped because the dispatch buffer was full.",
})

type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards events to a sink on a single background goroutine so
// request handlers never wait on audit transport. A nil *Dispatcher is a
// valid no-op sink.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	ch      chan Event
	wg      sync.WaitGroup
	dropped atomic.Uint64

	// mu orders sends on ch before Close closes it.
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Event, cfg.BufferSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.ch {
		d.sink.Emit(context.Background(), e)
	}
}

// Emit enqueues e. An event accepted here is delivered even if Close runs
// concurrently; events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, e Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- e:
		default:
			d.dropped.Add(1)
			droppedEvents.Inc()
		}
		return
	}

	select {
	case d.ch <- e:
	case <-ctx.Done():
	}
}

// Close stops accepting events and drains what is already buffered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
