// Package notify delivers best-effort change events to per-user subscribers.
// Delivery is at-most-once with no replay; the database remains the source of truth.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

// Channel names a stream of change events.
type Channel string

const (
	ChannelReferrals Channel = "referrals"
	ChannelTrust     Channel = "trust"
)

// Operation describes the row change carried by an event.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
)

const defaultBufferSize = 32

// Event is one row change addressed to a single user.
type Event struct {
	Channel    Channel         `json:"channel"`
	UserID     uuid.UUID       `json:"user_id"`
	Operation  Operation       `json:"operation"`
	Record     json.RawMessage `json:"record"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher accepts change events. Implementations never block the caller on delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type dropCounter interface {
	IncNotifyDropped(channel string)
}

type subscriptionKey struct {
	channel Channel
	userID  uuid.UUID
}

type subscriber struct {
	events chan Event
	done   chan struct{}
}

// Bus fans events out to in-process subscribers. Each subscriber owns a bounded buffer drained
// by its own goroutine; when the buffer is full the event is dropped for that subscriber.
type Bus struct {
	mu         sync.RWMutex
	subs       map[subscriptionKey]map[*subscriber]struct{}
	bufferSize int
	drops      dropCounter
	logg       *logger.Logger
}

// NewBus builds an empty bus. bufferSize <= 0 falls back to the default.
func NewBus(bufferSize int, drops dropCounter, logg *logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subs:       make(map[subscriptionKey]map[*subscriber]struct{}),
		bufferSize: bufferSize,
		drops:      drops,
		logg:       logg,
	}
}

// Subscribe registers fn for events on channel addressed to userID. The returned func
// unsubscribes and is safe to call more than once.
func (b *Bus) Subscribe(channel Channel, userID uuid.UUID, fn func(Event)) func() {
	sub := &subscriber{
		events: make(chan Event, b.bufferSize),
		done:   make(chan struct{}),
	}
	key := subscriptionKey{channel: channel, userID: userID}

	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[*subscriber]struct{})
	}
	b.subs[key][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			select {
			case event := <-sub.events:
				b.deliver(fn, event)
			case <-sub.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], sub)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
			close(sub.done)
		})
	}
}

// Publish enqueues event for every matching subscriber without blocking.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	key := subscriptionKey{channel: event.Channel, userID: event.UserID}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[key] {
		select {
		case sub.events <- event:
		default:
			if b.drops != nil {
				b.drops.IncNotifyDropped(string(event.Channel))
			}
			if b.logg != nil {
				b.logg.Warn(b.logg.WithUserID(ctx, event.UserID.String()), "dropping change event for slow subscriber")
			}
		}
	}
}

func (b *Bus) deliver(fn func(Event), event Event) {
	defer func() {
		if r := recover(); r != nil && b.logg != nil {
			b.logg.Warn(context.Background(), "change subscriber panicked")
		}
	}()
	fn(event)
}

// NewEvent marshals record into an event. Marshal failures yield an event with a null record.
func NewEvent(channel Channel, userID uuid.UUID, op Operation, record any) Event {
	payload, err := json.Marshal(record)
	if err != nil {
		payload = json.RawMessage("null")
	}
	return Event{
		Channel:    channel,
		UserID:     userID,
		Operation:  op,
		Record:     payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
