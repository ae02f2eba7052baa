// Package notify defines the event fan-out boundary between the services
// that mutate club state and whatever transport delivers change events to
// observers.
package notify

import (
	"sync"

	"github.com/goldenknight/chessclub/internal/model"
)

// Notifier receives events after the mutation that produced them has been
// committed. Implementations must not block the caller.
type Notifier interface {
	Broadcast(event model.Event)
}

// Nop discards all events
type Nop struct{}

func (Nop) Broadcast(model.Event) {}

// Capture records published events for inspection in tests
type Capture struct {
	mu     sync.Mutex
	events []model.Event
}

func (c *Capture) Broadcast(event model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of everything published so far
func (c *Capture) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Event(nil), c.events...)
}

// Reset clears the captured events
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
