package service

import (
	"sync"

	"github.com/fablestep/fablestep/internal/app"
	"github.com/fablestep/fablestep/internal/domain/model/game"
)

// EventKind classifies a published game event
type EventKind string

const (
	// EventCommitted is published after every successful commit
	EventCommitted EventKind = "committed"
	// EventAwaitingDice is published when a step suspends for a dice roll
	EventAwaitingDice EventKind = "awaiting_dice"
	// EventTraceDegraded is published when trace recording failed after a
	// successful commit, so the trace gap stays observable
	EventTraceDegraded EventKind = "trace_degraded"
)

// Event is the state-transition notification delivered to subscribers
type Event struct {
	Kind    EventKind
	GameID  game.ID
	Version int
	Summary string
}

// Subscriber receives game events. Notify must not assume it runs on the
// orchestrator's goroutine.
type Subscriber interface {
	Notify(event Event)
}

// SubscriberFunc adapts a function to the Subscriber interface
type SubscriberFunc func(event Event)

// Notify implements Subscriber
func (f SubscriberFunc) Notify(event Event) {
	f(event)
}

// Notifier publishes events to zero or more subscribers after a commit.
// Publication is fire-and-forget: each subscriber runs on its own
// goroutine, a panicking subscriber is isolated and logged, and the
// orchestrator is never blocked or failed by a subscriber.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[int]Subscriber
	nextID      int
	wg          sync.WaitGroup
	logger      app.Logger
}

// NewNotifier creates a notifier
func NewNotifier(logger app.Logger) *Notifier {
	if logger == nil {
		logger = app.GetLogger()
	}
	return &Notifier{
		subscribers: make(map[int]Subscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber and returns an unsubscribe function
func (n *Notifier) Subscribe(sub Subscriber) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = sub

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers, id)
	}
}

// Publish delivers the event to all current subscribers without blocking
// the caller
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	subs := make([]Subscriber, 0, len(n.subscribers))
	for _, sub := range n.subscribers {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		n.wg.Add(1)
		go func(s Subscriber) {
			defer n.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					n.logger.Warn("event subscriber panicked: %v", r)
				}
			}()
			s.Notify(event)
		}(sub)
	}
}

// Close waits for all in-flight deliveries to finish
func (n *Notifier) Close() {
	n.wg.Wait()
}
