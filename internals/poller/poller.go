// Package poller fetches new updates on a fixed cadence, tracks the update
// cursor and hands every new message to a consumer exactly once.
//
// Polling is best effort. A failed cycle is dropped and the next tick tries
// again; failures only reach the optional failure observer.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Oudwins/botdesk/internals/assert"
	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/timeouts"
)

var ErrCycleInFlight = errors.New("poll cycle already in flight")

// Source is the part of the bot client the loop needs.
type Source interface {
	HasCredential() bool
	GetUpdates(ctx context.Context, offset *int64) ([]botapi.Update, error)
}

// Consumer receives each newly observed update that carries a message, in
// ascending update id order. It runs on the cycle goroutine and must not block
// for long.
type Consumer func(update botapi.Update)

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithFailureObserver registers a hook for suppressed cycle errors.
func WithFailureObserver(observe func(error)) Option {
	return func(p *Poller) {
		p.observe = observe
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

type Poller struct {
	source   Source
	consume  Consumer
	interval time.Duration
	observe  func(error)
	logger   *slog.Logger

	// busy is held for the whole duration of a fetch cycle. pending records
	// an immediate cycle requested by Start while busy was held.
	busy    atomic.Bool
	pending atomic.Bool
	cycles  sync.WaitGroup

	mu        sync.Mutex
	cursor    int64
	hasCursor bool
	stop      chan struct{}
	done      chan struct{}
}

func New(source Source, consume Consumer, opts ...Option) *Poller {
	assert.That(source != nil, "poller: nil source")
	p := &Poller{
		source:   source,
		consume:  consume,
		interval: timeouts.PollInterval,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling and runs one cycle right away. If a cycle from a
// previous run is still in flight, the immediate cycle runs as soon as it
// finishes. Start is a no-op returning false when no credential is set or the
// loop is already running.
func (p *Poller) Start() bool {
	if !p.source.HasCredential() {
		p.logger.Debug("polling not started, no credential")
		return false
	}

	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return false
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop = stop
	p.done = done
	p.mu.Unlock()

	p.logger.Info("polling started", slog.Duration("interval", p.interval))
	p.trigger(true)
	go p.loop(stop, done)
	return true
}

// Stop cancels the timer. A cycle already in flight still completes and its
// cursor update is kept.
func (p *Poller) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return false
	}
	close(p.stop)
	p.stop = nil
	p.logger.Info("polling stopped")
	return true
}

// Wait blocks until the last loop has exited and no cycle is in flight.
func (p *Poller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.cycles.Wait()
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Cursor returns the highest update id processed so far.
func (p *Poller) Cursor() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor, p.hasCursor
}

// PollOnce runs a single cycle on the calling goroutine and reports how many
// messages were delivered. Unlike the loop it returns the cycle error.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return 0, ErrCycleInFlight
	}
	defer p.release()
	return p.fetch(ctx)
}

func (p *Poller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			p.trigger(false)
		}
	}
}

// trigger starts a cycle unless one is outstanding. Dropped ticks are not
// queued; an immediate request is kept in the single pending slot instead.
func (p *Poller) trigger(immediate bool) {
	if !p.source.HasCredential() {
		p.logger.Debug("poll skipped, no credential")
		return
	}
	if !p.busy.CompareAndSwap(false, true) {
		if !immediate {
			p.logger.Debug("poll skipped, cycle in flight")
			return
		}
		p.pending.Store(true)
		// The cycle may have released busy before seeing pending.
		if !p.busy.CompareAndSwap(false, true) {
			p.logger.Debug("poll deferred until the cycle in flight ends")
			return
		}
		p.pending.Store(false)
	}

	p.cycles.Add(1)
	go func() {
		defer p.cycles.Done()
		defer p.release()

		// Stop does not abort the request, so the cycle is detached from any caller context.
		delivered, err := p.fetch(context.Background())
		if err != nil {
			if p.observe != nil {
				p.observe(err)
			}
			return
		}
		if delivered > 0 {
			p.logger.Debug("poll delivered messages", slog.Int("count", delivered))
		}
	}()
}

// release ends the current cycle and runs the pending one, if the loop is
// still running.
func (p *Poller) release() {
	p.busy.Store(false)
	if p.pending.Swap(false) && p.Running() {
		p.trigger(false)
	}
}

func (p *Poller) fetch(ctx context.Context) (int, error) {
	updates, err := p.source.GetUpdates(ctx, p.nextOffset())
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, update := range updates {
		if !p.advance(update.UpdateID) {
			continue
		}
		if update.Message != nil && p.consume != nil {
			p.consume(update)
			delivered++
		}
	}
	return delivered, nil
}

func (p *Poller) nextOffset() *int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasCursor {
		return nil
	}
	next := p.cursor + 1
	return &next
}

// advance moves the cursor to id if id is new. Stale ids report false.
func (p *Poller) advance(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasCursor && id <= p.cursor {
		return false
	}
	p.cursor = id
	p.hasCursor = true
	return true
}
