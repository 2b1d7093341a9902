package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	gate   chan struct{}
}

func (r *recordingSink) Notify(_ context.Context, e Event) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsyncSinkDeliversOnClose(t *testing.T) {
	rec := &recordingSink{}
	sink := NewAsyncSink(rec, 8, discardLogger())
	for i := 0; i < 5; i++ {
		sink.Notify(context.Background(), Event{AccountID: "a", Kind: KindInvestmentOpened})
	}
	sink.Close()
	assert.Len(t, rec.events, 5)

	// Notify after Close is a no-op.
	sink.Notify(context.Background(), Event{AccountID: "a"})
	assert.Len(t, rec.events, 5)
}

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	rec := &recordingSink{gate: make(chan struct{})}
	sink := NewAsyncSink(rec, 1, discardLogger())

	for i := 0; i < 10; i++ {
		sink.Notify(context.Background(), Event{AccountID: "a"})
	}
	assert.Positive(t, sink.Dropped())

	close(rec.gate)
	sink.Close()
	assert.Equal(t, int64(10), int64(len(rec.events))+sink.Dropped())
}

func TestLogSink(t *testing.T) {
	NewLogSink(discardLogger()).Notify(context.Background(), Event{AccountID: "a", Kind: KindReferralCommission})
}
