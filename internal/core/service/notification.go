package service

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/wheels-shop/internal/core/domain"
)

const DefaultNotificationDuration = 3000 * time.Millisecond

var ErrQueueClosed = errors.New("notification queue is closed")

// A NotificationQueue keeps transient messages in insertion order.
// Each message expires after its duration.
type NotificationQueue struct {
	mu              sync.Mutex
	items           []domain.Notification
	timers          map[string]*time.Timer
	defaultDuration time.Duration
	closed          bool
	newID           func() string
	now             func() time.Time
	onEmpty         func()
}

func NewNotificationQueue(defaultDuration time.Duration) *NotificationQueue {
	if defaultDuration <= 0 {
		defaultDuration = DefaultNotificationDuration
	}
	return &NotificationQueue{
		timers:          make(map[string]*time.Timer),
		defaultDuration: defaultDuration,
		newID:           uuid.NewString,
		now:             time.Now,
	}
}

func (q *NotificationQueue) Show(
	req domain.NotificationRequest,
) (domain.Notification, error) {
	const op = "NotificationQueue.Show"

	if !req.Severity.Valid() {
		return domain.Notification{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrInvalidSeverity, req.Severity,
		)
	}

	if req.Duration <= 0 {
		req.Duration = q.defaultDuration
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return domain.Notification{}, fmt.Errorf("%s: %w", op, ErrQueueClosed)
	}

	n := domain.Notification{
		ID:        q.newID(),
		Title:     req.Title,
		Message:   req.Message,
		Severity:  req.Severity,
		CreatedAt: q.now(),
		Duration:  req.Duration,
	}
	q.items = append(q.items, n)
	q.timers[n.ID] = time.AfterFunc(n.Duration, func() { q.expire(n.ID) })

	return n, nil
}

// Close removes the notification before it expires.
func (q *NotificationQueue) Close(id string) error {
	const op = "NotificationQueue.Close"

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.remove(id) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotificationGone)
	}
	return nil
}

func (q *NotificationQueue) List() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Shutdown stops every pending expiry timer and drops the messages.
func (q *NotificationQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}

// expire runs on the timer goroutine. onEmpty is called without q.mu
// held.
func (q *NotificationQueue) expire(id string) {
	q.mu.Lock()
	removed := q.remove(id)
	empty := len(q.items) == 0
	onEmpty := q.onEmpty
	q.mu.Unlock()

	if removed && empty && onEmpty != nil {
		onEmpty()
	}
}

// remove is called with q.mu held.
func (q *NotificationQueue) remove(id string) bool {
	i := slices.IndexFunc(q.items, func(n domain.Notification) bool {
		return n.ID == id
	})
	if i < 0 {
		return false
	}
	q.items = slices.Delete(q.items, i, i+1)
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	return true
}

// Notifications keeps one [NotificationQueue] per cart key. A queue
// exists only while it holds messages.
type Notifications struct {
	mu              sync.Mutex
	queues          map[string]*NotificationQueue
	defaultDuration time.Duration
	closed          bool
}

func NewNotifications(defaultDuration time.Duration) *Notifications {
	return &Notifications{
		queues:          make(map[string]*NotificationQueue),
		defaultDuration: defaultDuration,
	}
}

func (n *Notifications) Show(
	key string, req domain.NotificationRequest,
) (domain.Notification, error) {
	const op = "Notifications.Show"

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return domain.Notification{}, fmt.Errorf("%s: %w", op, ErrQueueClosed)
	}

	q, ok := n.queues[key]
	if !ok {
		q = NewNotificationQueue(n.defaultDuration)
		q.onEmpty = func() { n.drop(key, q) }
		n.queues[key] = q
	}
	return q.Show(req)
}

// List returns the messages of the key in insertion order.
func (n *Notifications) List(key string) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	q, ok := n.queues[key]
	if !ok {
		return nil
	}
	return q.List()
}

func (n *Notifications) Close(key, id string) error {
	const op = "Notifications.Close"

	n.mu.Lock()
	defer n.mu.Unlock()

	q, ok := n.queues[key]
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrNotificationGone)
	}
	if err := q.Close(id); err != nil {
		return err
	}
	if q.Len() == 0 {
		delete(n.queues, key)
		q.Shutdown()
	}
	return nil
}

// Len returns the number of keys with pending messages.
func (n *Notifications) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queues)
}

func (n *Notifications) Shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for key, q := range n.queues {
		q.Shutdown()
		delete(n.queues, key)
	}
	n.closed = true
}

// drop removes the queue of the key once its last message expired.
func (n *Notifications) drop(key string, q *NotificationQueue) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.queues[key] == q && q.Len() == 0 {
		delete(n.queues, key)
		q.Shutdown()
	}
}
