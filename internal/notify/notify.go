// internal/notify/notify.go
package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Event describes something an account holder may want to hear about.
type Event struct {
	AccountID string         `json:"account_id"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"at"`
}

// Event kinds emitted by the services.
const (
	KindTransactionResolved = "transaction.resolved"
	KindReferralCommission  = "referral.commission"
	KindInvestmentOpened    = "investment.opened"
	KindInvestmentCancelled = "investment.cancelled"
	KindInvestmentMatured   = "investment.matured"
)

// Sink receives events after the state change they describe is committed.
// Delivery is fire-and-forget.
type Sink interface {
	Notify(ctx context.Context, event Event)
}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(ctx context.Context, e Event) {
	s.logger.InfoContext(ctx, "Notification",
		"account_id", e.AccountID, "kind", e.Kind, "message", e.Message)
}

// AsyncSink hands events to a wrapped sink on a background goroutine.
// Events are dropped when the buffer is full.
type AsyncSink struct {
	next    Sink
	logger  *slog.Logger
	events  chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsyncSink starts the delivery goroutine. Call Close to drain it.
func NewAsyncSink(next Sink, buffer int, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 1
	}
	s := &AsyncSink{
		next:   next,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for e := range s.events {
		s.next.Notify(context.Background(), e)
	}
}

func (s *AsyncSink) Notify(_ context.Context, e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Notification dropped, buffer full", "account_id", e.AccountID, "kind", e.Kind)
	}
}

// Dropped returns how many events were discarded.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be delivered.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
	})
	<-s.done
}
