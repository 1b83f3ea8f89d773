package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vennapp/venner/internal/logging"
)

const channelPrefix = "changes:"

// subscriptionBuffer bounds how many events a slow subscriber can queue.
// Subscribers react to events by re-fetching, so dropped events are only a
// missed wakeup, not lost data; the next event triggers the same reload.
const subscriptionBuffer = 16

// Bus distributes row-change events. Publishes go through Redis pub/sub so
// writes made by other server instances reach local subscribers too.
type Bus struct {
	client *redis.Client
	logger *logging.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewBus(client *redis.Client, logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default
	}
	return &Bus{
		client: client,
		logger: logger,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Publish emits a change event for one row of the given table.
func (b *Bus) Publish(ctx context.Context, table string, op Op, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshaling event row: %w", err)
	}
	data, err := json.Marshal(Event{Table: table, Op: op, Row: payload})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := b.client.Publish(ctx, channelPrefix+table, data).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// Run consumes the Redis change channels and fans events out to local
// subscribers until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.logger.Warn("Dropping malformed change event", map[string]interface{}{
					"channel": msg.Channel,
					"error":   err.Error(),
				})
				continue
			}
			b.dispatch(evt)
		}
	}
}

// Subscribe opens a subscription for one table's events. The caller must
// Close it to release resources.
func (b *Bus) Subscribe(table string) *Subscription {
	sub := &Subscription{
		bus:   b,
		table: table,
		ch:    make(chan Event, subscriptionBuffer),
	}

	b.mu.Lock()
	if b.subs[table] == nil {
		b.subs[table] = make(map[*Subscription]struct{})
	}
	b.subs[table][sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[evt.Table] {
		select {
		case sub.ch <- evt:
		default:
			// Slow subscriber; the event is a wakeup, not data.
		}
	}
}

// Subscription is a stream of change events for one table.
type Subscription struct {
	bus   *Bus
	table string
	ch    chan Event
	once  sync.Once
}

// Events returns the subscription's event channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the bus and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.table], s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
