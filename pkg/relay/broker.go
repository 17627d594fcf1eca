package relay

import (
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultRoom receives events from clients that never joined a named room.
const DefaultRoom = "default"

// Event is one named payload pushed to subscribers.
type Event struct {
	Name string
	Data any
}

// Emitter delivers one named event to a client. Implementations carry the
// transport (SSE response, room broadcast); relay logic only sees this.
type Emitter interface {
	Emit(event string, data any) error
}

// Subscriber is one client attached to a room.
type Subscriber struct {
	room   string
	events chan Event
}

func (s *Subscriber) Room() string         { return s.room }
func (s *Subscriber) Events() <-chan Event { return s.events }

// Broker fans events out to room subscribers. Delivery is best-effort: a
// subscriber that cannot keep up loses events rather than stalling the
// publisher.
type Broker struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewBroker() *Broker {
	return &Broker{rooms: make(map[string]map[*Subscriber]struct{})}
}

const subscriberBuffer = 64

func (b *Broker) Subscribe(room string) *Subscriber {
	if room == "" {
		room = DefaultRoom
	}
	sub := &Subscriber{room: room, events: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[*Subscriber]struct{})
	}
	b.rooms[room][sub] = struct{}{}
	return sub
}

func (b *Broker) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.rooms[sub.room]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.events)
		}
		if len(subs) == 0 {
			delete(b.rooms, sub.room)
		}
	}
}

// Publish pushes the event to every subscriber of the room without blocking.
func (b *Broker) Publish(room, name string, data any) {
	if room == "" {
		room = DefaultRoom
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.rooms[room] {
		select {
		case sub.events <- Event{Name: name, Data: data}:
		default:
			log.Debug("dropping event for slow subscriber", "room", room, "event", name)
		}
	}
}

// Room returns an Emitter that broadcasts into the named room.
func (b *Broker) Room(room string) Emitter {
	return roomEmitter{broker: b, room: room}
}

type roomEmitter struct {
	broker *Broker
	room   string
}

func (e roomEmitter) Emit(event string, data any) error {
	e.broker.Publish(e.room, event, data)
	return nil
}
