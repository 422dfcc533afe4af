package service

import (
	"log"
	"sync"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/repository"
)

// RoomEntry is one room as the viewer's room list sees it: the full message
// snapshot plus the unread state derived from the viewer's read watermark.
type RoomEntry struct {
	Room            string                   `json:"room"`
	PhotoURL        string                   `json:"photo_url"`
	Messages        []models.MessageResponse `json:"messages"`
	HasNewMessage   bool                     `json:"has_new_message"`
	NewMessageCount int                      `json:"new_message_count"`
}

// RoomListSnapshot is a complete room list emission. Every emission carries
// the whole list; a later snapshot always supersedes an earlier one.
type RoomListSnapshot struct {
	NoRooms bool        `json:"no_rooms"`
	Rooms   []RoomEntry `json:"rooms"`
}

// ComputeUnread counts messages created strictly after the watermark, never
// counting the viewer's own. A message stamped exactly at the watermark is
// read. The flag is true exactly when the count is positive.
func ComputeUnread(messages []models.Message, watermark time.Time, viewer string) (int, bool) {
	count := 0
	for i := range messages {
		if messages[i].User == viewer {
			continue
		}
		if messages[i].CreatedAt.After(watermark) {
			count++
		}
	}
	return count, count > 0
}

type aggregatorEvent struct {
	membership bool
	room       string
}

// UnreadAggregator maintains one signed-in user's live room list. It merges
// the viewer's membership stream with one message stream per joined room and
// the viewer's per-room read watermarks into derived per-room unread state.
//
// Each room holds an independently cancellable subscription. On every
// membership emission the subscription set is diffed against the new
// membership set: vanished rooms are cancelled and dropped, new rooms are
// subscribed. A room emission replaces that room's entry wholesale, so
// re-delivering an identical snapshot is idempotent.
type UnreadAggregator struct {
	viewer string
	broker *live.Broker

	roomRepo       repository.RoomRepositoryInterface
	membershipRepo repository.MembershipRepositoryInterface
	messageRepo    repository.MessageRepositoryInterface

	mu      sync.Mutex
	entries map[string]*RoomEntry
	order   []string
	noRooms bool

	membershipSub *live.Subscription
	roomSubs      map[string]*live.Subscription

	events  chan aggregatorEvent
	updates chan RoomListSnapshot
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewUnreadAggregator(
	viewer string,
	broker *live.Broker,
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) *UnreadAggregator {
	return &UnreadAggregator{
		viewer:         viewer,
		broker:         broker,
		roomRepo:       roomRepo,
		membershipRepo: membershipRepo,
		messageRepo:    messageRepo,
		entries:        make(map[string]*RoomEntry),
		roomSubs:       make(map[string]*live.Subscription),
		events:         make(chan aggregatorEvent),
		updates:        make(chan RoomListSnapshot, 1),
		done:           make(chan struct{}),
	}
}

// Start subscribes to the viewer's membership stream and begins emitting
// snapshots on Updates. The initial snapshot arrives without any writes
// happening first.
func (a *UnreadAggregator) Start() {
	a.membershipSub = a.broker.Subscribe(live.MembershipTopic(a.viewer))

	a.wg.Add(2)
	go a.forward(a.membershipSub, aggregatorEvent{membership: true})
	go a.run()
}

// Updates delivers room list snapshots. The channel has capacity one and
// coalesces: a snapshot not yet consumed is replaced by the next one.
func (a *UnreadAggregator) Updates() <-chan RoomListSnapshot {
	return a.updates
}

// Close tears the whole pipeline down: the membership subscription, every
// per-room subscription, and the event loop. The updates channel is closed
// once the last emitter has stopped, so consumers ranging over it terminate.
// Safe to call more than once.
func (a *UnreadAggregator) Close() {
	a.once.Do(func() {
		close(a.done)
		a.membershipSub.Cancel()

		a.mu.Lock()
		for _, sub := range a.roomSubs {
			sub.Cancel()
		}
		a.roomSubs = make(map[string]*live.Subscription)
		a.mu.Unlock()

		a.wg.Wait()
		close(a.updates)
	})
}

// OpenRoom is the viewer entering a room. The unread state clears
// optimistically before the watermark write, so the badge disappears even if
// the write later fails. The watermark itself is written read-then-check:
// absent memberships are created, existing ones updated. Concurrent opens can
// interleave; last write wins and the loser is only logged.
func (a *UnreadAggregator) OpenRoom(room string) {
	a.mu.Lock()
	if entry, ok := a.entries[room]; ok {
		entry.HasNewMessage = false
		entry.NewMessageCount = 0
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()
	a.emit(snap)

	now := time.Now()
	if _, err := a.membershipRepo.Find(a.viewer, room); err != nil {
		err := a.membershipRepo.Create(&models.Membership{UserID: a.viewer, RoomID: room, LastRead: &now})
		if err != nil {
			log.Printf("level=warn msg=\"watermark create failed\" user=%q room=%q error=%q", a.viewer, room, err)
			return
		}
	} else {
		if err := a.membershipRepo.SetLastRead(a.viewer, room, now); err != nil {
			log.Printf("level=warn msg=\"watermark write failed\" user=%q room=%q error=%q", a.viewer, room, err)
			return
		}
	}

	// The watermark is an input to the derived view; wake its subscribers.
	a.broker.Publish(live.RoomTopic(room))
}

// Snapshot returns the current derived state without waiting for an emission.
func (a *UnreadAggregator) Snapshot() RoomListSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *UnreadAggregator) forward(sub *live.Subscription, ev aggregatorEvent) {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case _, ok := <-sub.C:
			if !ok {
				return
			}
			select {
			case a.events <- ev:
			case <-a.done:
				return
			}
		}
	}
}

func (a *UnreadAggregator) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case ev := <-a.events:
			if ev.membership {
				a.handleMembership()
			} else {
				a.handleRoom(ev.room)
			}
		}
	}
}

// handleMembership reloads the membership set and diffs the per-room
// subscriptions against it. A read failure keeps the previous state.
func (a *UnreadAggregator) handleMembership() {
	memberships, err := a.membershipRepo.ListByUser(a.viewer)
	if err != nil {
		log.Printf("level=error msg=\"membership reload failed\" user=%q error=%q", a.viewer, err)
		return
	}

	current := make(map[string]struct{}, len(memberships))
	order := make([]string, 0, len(memberships))
	photos := make(map[string]string, len(memberships))
	for _, m := range memberships {
		current[m.RoomID] = struct{}{}
		order = append(order, m.RoomID)
		photos[m.RoomID] = a.roomPhoto(m.RoomID)
	}

	a.mu.Lock()
	a.order = order
	a.noRooms = len(memberships) == 0

	for room, sub := range a.roomSubs {
		if _, ok := current[room]; !ok {
			sub.Cancel()
			delete(a.roomSubs, room)
			delete(a.entries, room)
		}
	}

	type addedSub struct {
		room string
		sub  *live.Subscription
	}
	var added []addedSub
	for _, room := range order {
		if _, ok := a.roomSubs[room]; ok {
			continue
		}
		a.entries[room] = &RoomEntry{Room: room, PhotoURL: photos[room]}
		sub := a.broker.Subscribe(live.RoomTopic(room))
		a.roomSubs[room] = sub
		added = append(added, addedSub{room: room, sub: sub})
	}

	// Membership emissions also refresh room metadata for rooms already held.
	for room, entry := range a.entries {
		entry.PhotoURL = photos[room]
	}

	snap := a.snapshotLocked()
	a.mu.Unlock()

	for _, as := range added {
		a.wg.Add(1)
		go a.forward(as.sub, aggregatorEvent{room: as.room})
	}

	a.emit(snap)
}

// handleRoom reloads one room's messages and the viewer's watermark and
// replaces that room's entry wholesale.
func (a *UnreadAggregator) handleRoom(room string) {
	a.mu.Lock()
	_, subscribed := a.roomSubs[room]
	a.mu.Unlock()
	if !subscribed {
		return
	}

	messages, err := a.messageRepo.ListByRoom(room)
	if err != nil {
		log.Printf("level=error msg=\"message reload failed\" user=%q room=%q error=%q", a.viewer, room, err)
		return
	}

	membership, err := a.membershipRepo.Find(a.viewer, room)
	if err != nil {
		membership = nil
	}

	count, has := ComputeUnread(messages, membership.Watermark(), a.viewer)

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}

	a.mu.Lock()
	if _, ok := a.roomSubs[room]; !ok {
		a.mu.Unlock()
		return
	}
	photo := ""
	if prev, ok := a.entries[room]; ok {
		photo = prev.PhotoURL
	}
	a.entries[room] = &RoomEntry{
		Room:            room,
		PhotoURL:        photo,
		Messages:        responses,
		HasNewMessage:   has,
		NewMessageCount: count,
	}
	snap := a.snapshotLocked()
	a.mu.Unlock()

	a.emit(snap)
}

func (a *UnreadAggregator) roomPhoto(room string) string {
	r, err := a.roomRepo.FindByName(room)
	if err != nil {
		return ""
	}
	return r.PhotoURL
}

func (a *UnreadAggregator) snapshotLocked() RoomListSnapshot {
	rooms := make([]RoomEntry, 0, len(a.order))
	for _, room := range a.order {
		if entry, ok := a.entries[room]; ok {
			rooms = append(rooms, *entry)
		}
	}
	return RoomListSnapshot{NoRooms: a.noRooms, Rooms: rooms}
}

// emit replaces any unconsumed snapshot with the newer one.
func (a *UnreadAggregator) emit(snap RoomListSnapshot) {
	select {
	case <-a.done:
		return
	default:
	}
	select {
	case <-a.updates:
	default:
	}
	select {
	case a.updates <- snap:
	default:
	}
}

// BuildRoomList is the one-shot equivalent of the aggregator: the viewer's
// room list with unread state computed once, no subscriptions held.
func BuildRoomList(
	viewer string,
	roomRepo repository.RoomRepositoryInterface,
	membershipRepo repository.MembershipRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
) (RoomListSnapshot, error) {
	memberships, err := membershipRepo.ListByUser(viewer)
	if err != nil {
		return RoomListSnapshot{}, err
	}

	snap := RoomListSnapshot{NoRooms: len(memberships) == 0}
	for _, m := range memberships {
		entry := RoomEntry{Room: m.RoomID}
		if room, err := roomRepo.FindByName(m.RoomID); err == nil {
			entry.PhotoURL = room.PhotoURL
		}

		messages, err := messageRepo.ListByRoom(m.RoomID)
		if err != nil {
			return RoomListSnapshot{}, err
		}
		entry.NewMessageCount, entry.HasNewMessage = ComputeUnread(messages, m.Watermark(), viewer)
		entry.Messages = make([]models.MessageResponse, 0, len(messages))
		for i := range messages {
			entry.Messages = append(entry.Messages, messages[i].ToResponse())
		}

		snap.Rooms = append(snap.Rooms, entry)
	}
	return snap, nil
}
