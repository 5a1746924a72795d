package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tableflip.dev/habitdash/pkg/entry"
)

// Event announces that the ledger entry for Date was written.
type Event struct {
	Date  entry.Date
	Entry entry.DailyLogEntry
}

// Observer is called synchronously after every successful ledger write, with
// the context of the write.
type Observer func(ctx context.Context, ev Event)

type subscription struct {
	fn Observer
}

type observers struct {
	mu   sync.Mutex
	subs []*subscription
}

// Subscribe registers fn and returns a function that removes it. Observers
// run in registration order.
func (e *Engine) Subscribe(fn Observer) (cancel func()) {
	sub := &subscription{fn: fn}
	e.observers.mu.Lock()
	e.observers.subs = append(e.observers.subs, sub)
	e.observers.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.observers.mu.Lock()
			defer e.observers.mu.Unlock()
			for i, s := range e.observers.subs {
				if s == sub {
					e.observers.subs = append(e.observers.subs[:i], e.observers.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Updates adapts Subscribe to a channel for event loops. Delivery is best
// effort: events are dropped while the buffer is full. The channel closes
// when ctx is done.
func (e *Engine) Updates(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)
	var (
		mu     sync.Mutex
		closed bool
	)
	cancel := e.Subscribe(func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

func (o *observers) notify(ctx context.Context, log *zap.Logger, ev Event) {
	o.mu.Lock()
	subs := append([]*subscription(nil), o.subs...)
	o.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("ledger observer panicked", zap.Any("panic", r))
				}
			}()
			sub.fn(ctx, ev)
		}()
	}
}
