package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// DefaultCapacity bounds the number of notifications kept for Recent.
const DefaultCapacity = 100

// Notification is a one-shot operator message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	EntityID  string    `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Notifier accepts notifications. The interpreter client depends on this
// rather than on Center.
type Notifier interface {
	Notify(level Level, title, message, entityID string)
}

// Center keeps a bounded history of notifications and fans them out to
// subscribers.
type Center struct {
	mu      sync.Mutex
	buf     []Notification
	size    int
	subs    map[int]func(Notification)
	nextSub int
	now     func() time.Time
}

// NewCenter returns a Center keeping at most capacity notifications. A
// non-positive capacity uses DefaultCapacity.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Center{size: capacity, subs: make(map[int]func(Notification)), now: time.Now}
}

// Notify records a notification and delivers it to subscribers outside the lock.
func (c *Center) Notify(level Level, title, message, entityID string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		EntityID:  entityID,
		Timestamp: c.now().UTC(),
	}
	c.mu.Lock()
	c.buf = append(c.buf, n)
	if len(c.buf) > c.size {
		c.buf = append(c.buf[:0:0], c.buf[len(c.buf)-c.size:]...)
	}
	fns := make([]func(Notification), 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 returns all.
func (c *Center) Recent(limit int) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.buf)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Notification, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.buf[i])
	}
	return out
}

// Subscribe registers fn for future notifications and returns a cancel func.
func (c *Center) Subscribe(fn func(Notification)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
