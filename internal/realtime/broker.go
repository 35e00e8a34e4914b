package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	TopicMenu      = "menu"
	TopicCanteen   = "canteen"
	TopicAllOrders = "orders.all"
)

func UserOrdersTopic(userID string) string {
	return "orders.user." + userID
}

func UserNotificationsTopic(userID string) string {
	return "notifications." + userID
}

// Update carries a full snapshot of a topic's current state. Subscribers
// always receive whole snapshots, never diffs.
type Update struct {
	Topic string
	Data  interface{}
}

// Subscription is a cancellable stream of snapshots for one topic. A
// cancelled subscription is dead; re-subscribing is the only restart.
type Subscription struct {
	topic  string
	ch     chan Update
	broker *Broker
	once   sync.Once
}

func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
}

// Broker fans snapshots out to per-topic subscriber sets. Publishing never
// blocks: a subscriber that cannot keep up drops updates, the next snapshot
// carries the full state anyway.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]bool
	logger *logrus.Logger
}

func NewBroker(logger *logrus.Logger) *Broker {
	return &Broker{
		subs:   make(map[string]map[*Subscription]bool),
		logger: logger,
	}
}

func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic:  topic,
		ch:     make(chan Update, 16),
		broker: b,
	}

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]bool)
	}
	b.subs[topic][sub] = true
	b.mu.Unlock()

	return sub
}

func (b *Broker) Publish(topic string, data interface{}) {
	update := Update{Topic: topic, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		select {
		case sub.ch <- update:
		default:
			b.logger.WithField("topic", topic).Warn("Subscriber channel full, dropping snapshot")
		}
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.topic)
		}
	}
}

// SubscriberCount reports how many live subscriptions a topic has.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
