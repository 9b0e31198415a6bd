package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
)

const CartChangedTopic = "cart:changed"

var _ port.CartEventPublisher = (*Bus)(nil)

// A Bus delivers cart events to the subscribed components.
//
// Every subscriber gets the events one at a time in publish order.
// Publish waits until each subscriber is done with the previous event,
// so a subscriber must not block; slow work goes through a [Forwarder].
type Bus struct {
	bus EventBus.Bus
}

func New() Bus {
	return Bus{EventBus.New()}
}

func (b Bus) PublishCartEvent(evt domain.CartEvent) {
	b.bus.Publish(CartChangedTopic, evt)
}

func (b Bus) SubscribeCartEvents(fn func(domain.CartEvent)) error {
	const op = "Bus.SubscribeCartEvents"
	if err := b.bus.SubscribeAsync(CartChangedTopic, fn, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close waits for the subscribers to handle the published events.
func (b Bus) Close() {
	const op = "Bus.Close"
	log := slog.With("op", op)

	log.Info("draining event bus...")
	b.bus.WaitAsync()
	log.Info("event bus is drained")
}

// LogCartEvents returns a subscriber writing every cart change to the log.
func LogCartEvents() func(domain.CartEvent) {
	log := slog.With("op", "eventbus.LogCartEvents")
	return func(evt domain.CartEvent) {
		log.Debug("cart changed",
			"cartKey", evt.CartKey,
			"kind", evt.Kind,
			"variantID", evt.VariantID,
			"quantity", evt.Quantity,
		)
	}
}

const (
	DefaultForwardBuffer  = 1024
	DefaultProduceTimeout = 5 * time.Second

	maxForwardBatch = 64
)

// A Forwarder hands cart events over to the events producer from its
// own goroutine. Events arriving while the buffer is full are dropped.
type Forwarder struct {
	mu      sync.RWMutex
	closed  bool
	events  chan domain.CartEvent
	done    chan struct{}
	dropped atomic.Uint64
	p       port.CartEventsProducer
	timeout time.Duration
}

// NewForwarder starts the forwarding goroutine. Non-positive buffer
// and timeout fall back to the defaults.
func NewForwarder(
	p port.CartEventsProducer, buffer int, timeout time.Duration,
) *Forwarder {
	if p == nil {
		panic("eventbus.NewForwarder: nil producer") // develop mistake
	}
	if buffer <= 0 {
		buffer = DefaultForwardBuffer
	}
	if timeout <= 0 {
		timeout = DefaultProduceTimeout
	}
	f := &Forwarder{
		events:  make(chan domain.CartEvent, buffer),
		done:    make(chan struct{}),
		p:       p,
		timeout: timeout,
	}
	go f.run()
	return f
}

// Handle queues the event without blocking. It is meant to be
// subscribed to a [Bus].
func (f *Forwarder) Handle(evt domain.CartEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return
	}

	select {
	case f.events <- evt:
	default:
		f.dropped.Add(1)
		slog.Warn("forward buffer is full, cart event dropped",
			"op", "Forwarder.Handle",
			"cartKey", evt.CartKey,
			"kind", evt.Kind,
		)
	}
}

// Dropped returns the number of events lost to a full buffer.
func (f *Forwarder) Dropped() uint64 {
	return f.dropped.Load()
}

// Close stops accepting events and waits until the queued ones are
// produced.
func (f *Forwarder) Close() {
	const op = "Forwarder.Close"
	log := slog.With("op", op)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.events)
	f.mu.Unlock()

	log.Info("flushing cart events...")
	<-f.done
	log.Info("cart events are flushed")
}

func (f *Forwarder) run() {
	defer close(f.done)
	for evt := range f.events {
		f.produce(f.batch(evt))
	}
}

// batch collects the events already queued behind the first one.
func (f *Forwarder) batch(first domain.CartEvent) []domain.CartEvent {
	evts := []domain.CartEvent{first}
	for len(evts) < maxForwardBatch {
		select {
		case evt, ok := <-f.events:
			if !ok {
				return evts
			}
			evts = append(evts, evt)
		default:
			return evts
		}
	}
	return evts
}

func (f *Forwarder) produce(evts []domain.CartEvent) {
	const op = "Forwarder.produce"

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := f.p.ProduceCartEvents(ctx, evts); err != nil {
		slog.Error("failed to produce cart events",
			"op", op, "count", len(evts), "err", err)
	}
}
