package core

import "sync"

// Event actions mirror the mutations collections undergo.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type (
	// Event is a single change pushed on a collection topic.
	Event struct {
		Topic  string      `json:"topic"`
		Action string      `json:"action"`
		Doc    interface{} `json:"doc,omitempty"`
	}

	// Bus is an in-process publish/subscribe channel per collection topic.
	// Subscribers hold an explicit Subscription handle whose lifetime they own;
	// a slow subscriber drops events rather than blocking publishers.
	Bus struct {
		mux  sync.RWMutex
		subs map[string]map[*Subscription]struct{}
	}

	Subscription struct {
		C      <-chan Event
		c      chan Event
		bus    *Bus
		topics []string
		once   sync.Once
	}
)

const subBufferSize = 64

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers interest in one or more topics. The caller must call
// Unsubscribe when done; the channel is closed then.
func (b *Bus) Subscribe(topics ...string) *Subscription {
	c := make(chan Event, subBufferSize)
	sub := &Subscription{C: c, c: c, bus: b, topics: topics}

	b.mux.Lock()
	for _, topic := range topics {
		set, ok := b.subs[topic]
		if !ok {
			set = make(map[*Subscription]struct{})
			b.subs[topic] = set
		}
		set[sub] = struct{}{}
	}
	b.mux.Unlock()
	return sub
}

// Publish delivers the event to every subscription on its topic without blocking.
func (b *Bus) Publish(evt Event) {
	b.mux.RLock()
	defer b.mux.RUnlock()

	for sub := range b.subs[evt.Topic] {
		select {
		case sub.c <- evt:
		default: // subscriber too slow; the next snapshot corrects its view
		}
	}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mux.Lock()
		for _, topic := range s.topics {
			if set, ok := s.bus.subs[topic]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(s.bus.subs, topic)
				}
			}
		}
		s.bus.mux.Unlock()
		close(s.c)
	})
}
