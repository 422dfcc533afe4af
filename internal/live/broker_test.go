package live

import (
	"testing"
	"time"
)

func drain(c chan struct{}) {
	select {
	case <-c:
	default:
	}
}

func TestSubscribeDeliversInitialNotification(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe(RoomTopic("general"))
	defer sub.Cancel()

	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("expected initial notification after Subscribe")
	}
}

func TestPublishWakesSubscribers(t *testing.T) {
	broker := NewBroker()
	sub1 := broker.Subscribe(RoomTopic("general"))
	sub2 := broker.Subscribe(RoomTopic("general"))
	other := broker.Subscribe(RoomTopic("random"))
	defer sub1.Cancel()
	defer sub2.Cancel()
	defer other.Cancel()

	drain(sub1.C)
	drain(sub2.C)
	drain(other.C)

	broker.Publish(RoomTopic("general"))

	for i, sub := range []*Subscription{sub1, sub2} {
		select {
		case <-sub.C:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive notification", i+1)
		}
	}

	select {
	case <-other.C:
		t.Fatal("subscriber on another topic received notification")
	default:
	}
}

func TestPublishCoalesces(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe(RoomTopic("general"))
	defer sub.Cancel()
	drain(sub.C)

	for i := 0; i < 5; i++ {
		broker.Publish(RoomTopic("general"))
	}

	<-sub.C
	select {
	case <-sub.C:
		t.Fatal("expected pending notifications to coalesce into one wakeup")
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe(RoomTopic("general"))
	drain(sub.C)

	sub.Cancel()
	if got := broker.SubscriberCount(RoomTopic("general")); got != 0 {
		t.Fatalf("SubscriberCount after Cancel = %d, want 0", got)
	}

	broker.Publish(RoomTopic("general"))

	// Channel is closed; the only possible receive is the zero value from close.
	if _, ok := <-sub.C; ok {
		t.Fatal("received notification after Cancel")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe(MembershipTopic("John"))
	sub.Cancel()
	sub.Cancel()
}

func TestMembershipAndRoomTopicsAreDistinct(t *testing.T) {
	if MembershipTopic("general") == RoomTopic("general") {
		t.Fatal("membership and room topics must not collide")
	}
}
