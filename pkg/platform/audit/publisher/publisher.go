// Package publisher decouples audit emission from audit persistence.
// Domain code calls Emit; the publisher either writes synchronously or, in
// async mode, hands the event to a background drainer so the resolution
// path never waits on the audit sink.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "sigclause/pkg/platform/audit"
)

const drainTimeout = 5 * time.Second

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with the given inbox capacity. When
// the buffer is full, Emit falls back to a synchronous write rather than
// dropping the event: audit loss is worse than a slow call.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for sink failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one audit event. The event's category is derived from its
// action and its timestamp is defaulted when unset, so call sites stay
// small.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case <-p.closed:
		// Drainer is gone; write synchronously.
		return p.store.Append(ctx, event)
	default:
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		// Buffer full: write synchronously instead of dropping.
		return p.store.Append(ctx, event)
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			p.append(event)
		case <-p.closed:
			for {
				select {
				case event := <-p.inbox:
					p.append(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(event audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Error("audit append failed",
			"action", event.Action,
			"organization_id", event.OrgID.String(),
			"error", err.Error(),
		)
	}
}

// Close stops the background drainer after flushing buffered events.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}
