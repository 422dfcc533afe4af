package cache

import (
	"fmt"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for different cache types
const (
	RoomInfoTTL     = 5 * time.Minute
	RoomMessagesTTL = 2 * time.Minute
)

// RoomCache caches room metadata and per-room message snapshots. All methods
// are nil-safe so the server can run without Redis.
type RoomCache struct {
	redis *RedisCache
}

func NewRoomCache(redis *RedisCache) *RoomCache {
	return &RoomCache{redis: redis}
}

func roomInfoKey(room string) string {
	return fmt.Sprintf("room:%s:info", room)
}

func roomMessagesKey(room string) string {
	return fmt.Sprintf("room:%s:msgs", room)
}

// GetRoom retrieves cached room metadata
func (rc *RoomCache) GetRoom(room string) (*models.Room, bool) {
	if rc == nil || rc.redis == nil {
		return nil, false
	}
	data, err := rc.redis.Get(roomInfoKey(room))
	if err != nil || data == nil {
		return nil, false
	}

	var r models.Room
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	return &r, true
}

// SetRoom caches room metadata
func (rc *RoomCache) SetRoom(room *models.Room) error {
	if rc == nil || rc.redis == nil || room == nil {
		return nil
	}
	data, err := msgpack.Marshal(room)
	if err != nil {
		return err
	}
	return rc.redis.Set(roomInfoKey(room.Name), data, RoomInfoTTL)
}

// InvalidateRoom drops everything cached under a room: metadata and the
// message snapshot. Renames and deletes go through here.
func (rc *RoomCache) InvalidateRoom(room string) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	return rc.redis.DeletePattern(fmt.Sprintf("room:%s:*", room))
}

// GetMessages retrieves a cached message snapshot for a room
func (rc *RoomCache) GetMessages(room string) ([]models.Message, bool) {
	if rc == nil || rc.redis == nil {
		return nil, false
	}
	data, err := rc.redis.Get(roomMessagesKey(room))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

// SetMessages caches a message snapshot for a room
func (rc *RoomCache) SetMessages(room string, messages []models.Message) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}
	return rc.redis.Set(roomMessagesKey(room), data, RoomMessagesTTL)
}

// InvalidateMessages removes the message snapshot for a room
func (rc *RoomCache) InvalidateMessages(room string) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	return rc.redis.Delete(roomMessagesKey(room))
}
