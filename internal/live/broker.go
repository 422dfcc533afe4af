package live

import (
	"sync"
)

// Topic identifies one live query: a user's membership set or a room's
// message stream.
type Topic string

func MembershipTopic(userID string) Topic {
	return Topic("memberships:" + userID)
}

func RoomTopic(room string) Topic {
	return Topic("room:" + room)
}

// Broker fans change notifications out to subscribers. A notification carries
// no data: subscribers re-read the full current result set from the store, so
// every delivery behaves like a snapshot emission and a later emission always
// supersedes an earlier one.
type Broker struct {
	mu   sync.RWMutex
	subs map[Topic]map[*Subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[Topic]map[*Subscription]struct{})}
}

// Subscription is an independently cancellable handle on one topic. Its
// channel has capacity one and coalesces: pending notifications collapse into
// a single wakeup, which is safe because consumers re-read the whole result
// set anyway.
type Subscription struct {
	C chan struct{}

	topic  Topic
	broker *Broker
	once   sync.Once
}

// Subscribe registers a new subscription on topic and immediately queues one
// notification so the subscriber loads its initial snapshot.
func (b *Broker) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		C:      make(chan struct{}, 1),
		topic:  topic,
		broker: b,
	}

	b.mu.Lock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[topic] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	sub.C <- struct{}{}
	return sub
}

// Publish wakes every subscriber of topic. Non-blocking: a subscriber with a
// wakeup already pending is skipped.
func (b *Broker) Publish(topic Topic) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[topic] {
		select {
		case sub.C <- struct{}{}:
		default:
		}
	}
}

// Cancel removes the subscription and closes its channel. Safe to call more
// than once; no notification is delivered after Cancel returns.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		if set, ok := b.subs[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, s.topic)
			}
		}
		b.mu.Unlock()
		close(s.C)
	})
}

// SubscriberCount reports how many subscriptions are active on topic.
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
