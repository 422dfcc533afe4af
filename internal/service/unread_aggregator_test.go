package service

import (
	"testing"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
)

func TestComputeUnread(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := func(user string, offset time.Duration) models.Message {
		return models.Message{User: user, CreatedAt: base.Add(offset)}
	}

	tests := []struct {
		name      string
		messages  []models.Message
		watermark time.Time
		wantCount int
		wantFlag  bool
	}{
		{
			name:      "No messages",
			messages:  nil,
			watermark: base,
			wantCount: 0,
			wantFlag:  false,
		},
		{
			name:      "Absent watermark counts everything from others",
			messages:  []models.Message{msg("Alice", 0), msg("Bob", time.Minute)},
			watermark: time.Time{},
			wantCount: 2,
			wantFlag:  true,
		},
		{
			name:      "Strictly after watermark",
			messages:  []models.Message{msg("Alice", -time.Minute), msg("Alice", time.Minute)},
			watermark: base,
			wantCount: 1,
			wantFlag:  true,
		},
		{
			name:      "Message exactly at watermark is read",
			messages:  []models.Message{msg("Alice", 0)},
			watermark: base,
			wantCount: 0,
			wantFlag:  false,
		},
		{
			name:      "Own messages never count",
			messages:  []models.Message{msg("Viewer", time.Minute), msg("Alice", time.Minute)},
			watermark: base,
			wantCount: 1,
			wantFlag:  true,
		},
		{
			name:      "All read",
			messages:  []models.Message{msg("Alice", -time.Hour), msg("Bob", -time.Minute)},
			watermark: base,
			wantCount: 0,
			wantFlag:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, flag := ComputeUnread(tt.messages, tt.watermark, "Viewer")
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if flag != tt.wantFlag {
				t.Errorf("flag = %v, want %v", flag, tt.wantFlag)
			}
			if flag != (count > 0) {
				t.Errorf("flag %v disagrees with count %d", flag, count)
			}
		})
	}
}

type aggregatorFixture struct {
	broker      *live.Broker
	rooms       *MockRoomRepository
	memberships *MockMembershipRepository
	messages    *MockMessageRepository
	agg         *UnreadAggregator
}

func newAggregatorFixture(t *testing.T, viewer string) *aggregatorFixture {
	t.Helper()
	f := &aggregatorFixture{
		broker:      live.NewBroker(),
		rooms:       NewMockRoomRepository(),
		memberships: NewMockMembershipRepository(),
		messages:    NewMockMessageRepository(),
	}
	f.agg = NewUnreadAggregator(viewer, f.broker, f.rooms, f.memberships, f.messages)
	return f
}

// waitFor consumes snapshots until one satisfies the predicate. Coalescing
// means intermediate snapshots may be skipped, so tests assert on the state
// they wait for, not on emission counts.
func waitFor(t *testing.T, agg *UnreadAggregator, pred func(RoomListSnapshot) bool) RoomListSnapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-agg.Updates():
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot, last state: %+v", agg.Snapshot())
			return RoomListSnapshot{}
		}
	}
}

func roomEntry(snap RoomListSnapshot, room string) (RoomEntry, bool) {
	for _, e := range snap.Rooms {
		if e.Room == room {
			return e, true
		}
	}
	return RoomEntry{}, false
}

func TestAggregatorInitialSnapshot(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	base := time.Now().Add(-time.Hour)

	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general", JoinedAt: base})
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "random", JoinedAt: base.Add(time.Minute)})
	f.messages.Create(&models.Message{Room: "general", User: "Alice", Text: "hi", CreatedAt: base.Add(time.Minute)})
	f.messages.Create(&models.Message{Room: "general", User: "Viewer", Text: "hello", CreatedAt: base.Add(2 * time.Minute)})
	f.messages.Create(&models.Message{Room: "random", User: "Bob", Text: "yo", CreatedAt: base.Add(3 * time.Minute)})

	f.agg.Start()
	defer f.agg.Close()

	snap := waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		g, ok1 := roomEntry(s, "general")
		r, ok2 := roomEntry(s, "random")
		return ok1 && ok2 && len(g.Messages) == 2 && len(r.Messages) == 1
	})

	if snap.NoRooms {
		t.Errorf("NoRooms = true with two rooms")
	}
	if snap.Rooms[0].Room != "general" || snap.Rooms[1].Room != "random" {
		t.Errorf("room order = %q, %q; want join order general, random", snap.Rooms[0].Room, snap.Rooms[1].Room)
	}

	general, _ := roomEntry(snap, "general")
	if general.NewMessageCount != 1 || !general.HasNewMessage {
		t.Errorf("general unread = (%d, %v), want (1, true): own message must not count", general.NewMessageCount, general.HasNewMessage)
	}
	random, _ := roomEntry(snap, "random")
	if random.NewMessageCount != 1 || !random.HasNewMessage {
		t.Errorf("random unread = (%d, %v), want (1, true)", random.NewMessageCount, random.HasNewMessage)
	}
}

func TestAggregatorEmptyMembership(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.agg.Start()
	defer f.agg.Close()

	snap := waitFor(t, f.agg, func(s RoomListSnapshot) bool { return s.NoRooms })
	if len(snap.Rooms) != 0 {
		t.Errorf("rooms = %d, want 0", len(snap.Rooms))
	}
}

func TestAggregatorNewMessageIncrementsCount(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general"})

	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 0
	})

	f.messages.Create(&models.Message{Room: "general", User: "Alice", Text: "one"})
	f.broker.Publish(live.RoomTopic("general"))

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 1 && e.HasNewMessage
	})

	f.messages.Create(&models.Message{Room: "general", User: "Alice", Text: "two"})
	f.broker.Publish(live.RoomTopic("general"))

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 2 && len(e.Messages) == 2
	})
}

func TestAggregatorIdempotentReemission(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general"})
	f.messages.Create(&models.Message{Room: "general", User: "Alice", Text: "hi"})

	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 1
	})

	// Re-delivering the same underlying state must not change the result.
	f.broker.Publish(live.RoomTopic("general"))
	snap := waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && len(e.Messages) == 1
	})

	e, _ := roomEntry(snap, "general")
	if e.NewMessageCount != 1 || !e.HasNewMessage {
		t.Errorf("unread after re-emission = (%d, %v), want (1, true)", e.NewMessageCount, e.HasNewMessage)
	}
}

func TestAggregatorOpenRoomClearsAndWritesWatermark(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general"})
	f.messages.Create(&models.Message{Room: "general", User: "Alice", Text: "hi"})

	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 1
	})

	f.agg.OpenRoom("general")

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && e.NewMessageCount == 0 && !e.HasNewMessage
	})

	membership, err := f.memberships.Find("Viewer", "general")
	if err != nil {
		t.Fatalf("membership lost after OpenRoom: %v", err)
	}
	if membership.LastRead == nil {
		t.Fatalf("watermark not written by OpenRoom")
	}

	// Messages at or before the watermark stay read on recompute.
	f.broker.Publish(live.RoomTopic("general"))
	snap := waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		e, ok := roomEntry(s, "general")
		return ok && len(e.Messages) == 1
	})
	e, _ := roomEntry(snap, "general")
	if e.NewMessageCount != 0 || e.HasNewMessage {
		t.Errorf("unread after open = (%d, %v), want (0, false)", e.NewMessageCount, e.HasNewMessage)
	}
}

func TestAggregatorOpenRoomWithoutMembershipCreatesOne(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool { return s.NoRooms })

	f.agg.OpenRoom("general")

	membership, err := f.memberships.Find("Viewer", "general")
	if err != nil {
		t.Fatalf("OpenRoom did not create membership: %v", err)
	}
	if membership.LastRead == nil {
		t.Errorf("created membership has no watermark")
	}
}

func TestAggregatorMembershipDiff(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general"})

	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		_, ok := roomEntry(s, "general")
		return ok
	})
	if n := f.broker.SubscriberCount(live.RoomTopic("general")); n != 1 {
		t.Fatalf("general subscribers = %d, want 1", n)
	}

	// Join another room.
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "random"})
	f.broker.Publish(live.MembershipTopic("Viewer"))

	waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		_, ok := roomEntry(s, "random")
		return ok
	})
	if n := f.broker.SubscriberCount(live.RoomTopic("random")); n != 1 {
		t.Errorf("random subscribers = %d, want 1", n)
	}

	// Leave the first room: its subscription is cancelled and its entry
	// removed.
	f.memberships.Delete("Viewer", "general")
	f.broker.Publish(live.MembershipTopic("Viewer"))

	snap := waitFor(t, f.agg, func(s RoomListSnapshot) bool {
		_, gone := roomEntry(s, "general")
		_, kept := roomEntry(s, "random")
		return !gone && kept
	})
	if len(snap.Rooms) != 1 {
		t.Errorf("rooms = %d, want 1", len(snap.Rooms))
	}

	deadline := time.After(2 * time.Second)
	for f.broker.SubscriberCount(live.RoomTopic("general")) != 0 {
		select {
		case <-deadline:
			t.Fatalf("general subscription not cancelled after leave")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestAggregatorStaleRoomEventIgnored(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.agg.Start()
	defer f.agg.Close()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool { return s.NoRooms })

	// An event for a room the viewer never joined must not create an entry.
	f.broker.Publish(live.RoomTopic("general"))
	time.Sleep(50 * time.Millisecond)

	snap := f.agg.Snapshot()
	if _, ok := roomEntry(snap, "general"); ok {
		t.Errorf("stale room event created an entry")
	}
}

func TestAggregatorClose(t *testing.T) {
	f := newAggregatorFixture(t, "Viewer")
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general"})
	f.memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "random"})

	f.agg.Start()

	waitFor(t, f.agg, func(s RoomListSnapshot) bool { return len(s.Rooms) == 2 })

	f.agg.Close()

	for _, topic := range []live.Topic{
		live.MembershipTopic("Viewer"),
		live.RoomTopic("general"),
		live.RoomTopic("random"),
	} {
		if n := f.broker.SubscriberCount(topic); n != 0 {
			t.Errorf("subscribers on %q after Close = %d, want 0", topic, n)
		}
	}

	// Close twice is fine.
	f.agg.Close()
}

func TestBuildRoomList(t *testing.T) {
	rooms := NewMockRoomRepository()
	memberships := NewMockMembershipRepository()
	messages := NewMockMessageRepository()

	base := time.Now().Add(-time.Hour)
	watermark := base.Add(90 * time.Second)

	rooms.Create(&models.Room{Name: "general", CreatedBy: "Alice", PhotoURL: "https://cdn/general.jpg"})
	memberships.Create(&models.Membership{UserID: "Viewer", RoomID: "general", LastRead: &watermark})
	messages.Create(&models.Message{Room: "general", User: "Alice", Text: "before", CreatedAt: base.Add(time.Minute)})
	messages.Create(&models.Message{Room: "general", User: "Alice", Text: "after", CreatedAt: base.Add(2 * time.Minute)})
	messages.Create(&models.Message{Room: "general", User: "Viewer", Text: "mine", CreatedAt: base.Add(3 * time.Minute)})

	snap, err := BuildRoomList("Viewer", rooms, memberships, messages)
	if err != nil {
		t.Fatalf("BuildRoomList: %v", err)
	}

	if snap.NoRooms || len(snap.Rooms) != 1 {
		t.Fatalf("rooms = %d (noRooms=%v), want 1", len(snap.Rooms), snap.NoRooms)
	}
	entry := snap.Rooms[0]
	if entry.PhotoURL != "https://cdn/general.jpg" {
		t.Errorf("photo = %q", entry.PhotoURL)
	}
	if entry.NewMessageCount != 1 || !entry.HasNewMessage {
		t.Errorf("unread = (%d, %v), want (1, true)", entry.NewMessageCount, entry.HasNewMessage)
	}
	if len(entry.Messages) != 3 {
		t.Errorf("messages = %d, want 3", len(entry.Messages))
	}
}
