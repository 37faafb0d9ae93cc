// Package events allows for the registering and receiving of ledger events,
// including the integrity alarms raised by the mining scheduler.
package events

import (
	"fmt"
	"sync"
	"time"
)

// Kind classifies an event for consumers that only care about alarms.
type Kind string

// Set of event kinds.
const (
	KindLog       Kind = "log"
	KindMining    Kind = "mining"
	KindIntegrity Kind = "integrity"
)

// Event is what subscribers receive.
type Event struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// =============================================================================

// Events maintains a mapping of unique ids and channels so goroutines can
// register and receive events.
type Events struct {
	m  map[string]chan Event
	mu sync.RWMutex
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by the call
// to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events.
func (evt *Events) Acquire(id string) chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// Since an event is dropped if the receiver is not ready, this buffer
	// gives a slow websocket client room before it starts losing messages.
	const messageBuffer = 100

	evt.m[id] = make(chan Event, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by the call
// to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals an event to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(kind Kind, format string, args ...any) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	event := Event{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now().UTC(),
	}

	for _, ch := range evt.m {
		select {
		case ch <- event:
		default:
		}
	}
}
