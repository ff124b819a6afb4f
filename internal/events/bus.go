// Package events is an in-process publish/subscribe facility for named
// taxonomy notifications.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Event names published by the taxonomy store.
const (
	TaxonomyChanged = "taxonomy:changed"
	ThemeAdded      = "taxonomy:theme-added"
	ThemeMoved      = "taxonomy:theme-moved"
	ThemeDeleted    = "taxonomy:theme-deleted"
)

// Event is one notification. Only the fields relevant to Name are set.
type Event struct {
	Name           string
	Taxonomy       *types.Taxonomy
	Theme          *types.Theme
	ThemeID        string
	TargetVectorID string
	OccurredAt     time.Time
}

// Handler receives events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc allows plain functions to satisfy Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle dispatches to the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Subscription identifies a registered handler.
type Subscription struct {
	name string
	id   uint64
}

type entry struct {
	id      uint64
	handler Handler
}

// Bus fans events out to handlers registered per event name. An empty
// name subscribes to every event.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]entry
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// Subscribe registers h for events named name ("" for all events).
func (b *Bus) Subscribe(name string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[name] = append(b.handlers[name], entry{id: b.nextID, handler: h})
	return Subscription{name: name, id: b.nextID}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[sub.name]
	for i, e := range list {
		if e.id == sub.id {
			b.handlers[sub.name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers event synchronously to every matching handler and
// returns the joined handler errors. A nil bus drops the event.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if b == nil || event.Name == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[event.Name])+len(b.handlers[""]))
	for _, e := range b.handlers[event.Name] {
		targets = append(targets, e.handler)
	}
	for _, e := range b.handlers[""] {
		targets = append(targets, e.handler)
	}
	b.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if h == nil {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
