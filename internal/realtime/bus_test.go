package realtime

import (
	"encoding/json"
	"testing"
)

func TestBusDispatchReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus(nil, nil)

	msgSub := bus.Subscribe(TableMessages)
	defer msgSub.Close()
	friendSub := bus.Subscribe(TableFriendships)
	defer friendSub.Close()

	evt := Event{Table: TableMessages, Op: OpInsert, Row: json.RawMessage(`{"id":"x"}`)}
	bus.dispatch(evt)

	select {
	case got := <-msgSub.Events():
		if got.Table != TableMessages || got.Op != OpInsert {
			t.Errorf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("expected the messages subscriber to receive the event")
	}

	select {
	case got := <-friendSub.Events():
		t.Fatalf("friendships subscriber must not receive message events, got %+v", got)
	default:
	}
}

func TestBusDispatchDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(nil, nil)
	sub := bus.Subscribe(TableProfiles)
	defer sub.Close()

	evt := Event{Table: TableProfiles, Op: OpUpdate}
	for i := 0; i < subscriptionBuffer+5; i++ {
		bus.dispatch(evt)
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
			continue
		default:
		}
		break
	}
	if received != subscriptionBuffer {
		t.Errorf("expected %d buffered events, got %d", subscriptionBuffer, received)
	}
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	bus := NewBus(nil, nil)
	sub := bus.Subscribe(TableInvitations)
	sub.Close()
	sub.Close() // idempotent

	// Dispatch after close must not panic on the closed channel.
	bus.dispatch(Event{Table: TableInvitations, Op: OpInsert})

	if _, ok := <-sub.Events(); ok {
		t.Error("closed subscription must have a closed channel")
	}
}

func TestEventDecode(t *testing.T) {
	evt := Event{
		Table: TableMessages,
		Op:    OpInsert,
		Row:   json.RawMessage(`{"content":"hej","is_read":false}`),
	}

	var row struct {
		Content string `json:"content"`
		IsRead  bool   `json:"is_read"`
	}
	if err := evt.Decode(&row); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if row.Content != "hej" || row.IsRead {
		t.Errorf("unexpected decoded row: %+v", row)
	}
}
