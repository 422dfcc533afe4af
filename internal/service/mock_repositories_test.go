package service

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
)

// Hand-written mock repositories. They are mutex-guarded because the
// aggregator reads them from its own goroutine.

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByDisplayName(displayName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.DisplayName == displayName {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockUserRepository) Update(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) MarkEmailVerified(userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.EmailVerified = true
	return nil
}

// MockRoomRepository implements repository.RoomRepositoryInterface.
type MockRoomRepository struct {
	mu     sync.Mutex
	rooms  map[string]*models.Room
	nextID uint
}

func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{rooms: make(map[string]*models.Room), nextID: 1}
}

func (m *MockRoomRepository) Create(room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.Name]; ok {
		return errors.New("duplicate key")
	}
	if room.ID == 0 {
		room.ID = m.nextID
		m.nextID++
	}
	m.rooms[room.Name] = room
	return nil
}

func (m *MockRoomRepository) FindByName(name string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		return r, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockRoomRepository) SearchByPrefix(prefix string, limit int) ([]models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Room
	for _, r := range m.rooms {
		if strings.HasPrefix(r.Name, prefix) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRoomRepository) Update(room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, r := range m.rooms {
		if r.ID == room.ID && name != room.Name {
			delete(m.rooms, name)
		}
	}
	m.rooms[room.Name] = room
	return nil
}

func (m *MockRoomRepository) RenameCreator(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.CreatedBy == oldName {
			r.CreatedBy = newName
		}
	}
	return nil
}

func (m *MockRoomRepository) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, name)
	return nil
}

// MockMembershipRepository implements repository.MembershipRepositoryInterface.
// Join order is preserved so ListByUser matches the joined_at ordering of the
// real repository.
type MockMembershipRepository struct {
	mu          sync.Mutex
	memberships []*models.Membership
}

func NewMockMembershipRepository() *MockMembershipRepository {
	return &MockMembershipRepository{}
}

func (m *MockMembershipRepository) Create(membership *models.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.memberships {
		if existing.UserID == membership.UserID && existing.RoomID == membership.RoomID {
			return errors.New("duplicate key")
		}
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = time.Now()
	}
	m.memberships = append(m.memberships, membership)
	return nil
}

func (m *MockMembershipRepository) Find(userID, roomID string) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.memberships {
		if ms.UserID == userID && ms.RoomID == roomID {
			copied := *ms
			return &copied, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockMembershipRepository) ListByUser(userID string) ([]models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Membership
	for _, ms := range m.memberships {
		if ms.UserID == userID {
			out = append(out, *ms)
		}
	}
	return out, nil
}

func (m *MockMembershipRepository) ListByRoom(roomID string) ([]models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Membership
	for _, ms := range m.memberships {
		if ms.RoomID == roomID {
			out = append(out, *ms)
		}
	}
	return out, nil
}

func (m *MockMembershipRepository) Delete(userID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ms := range m.memberships {
		if ms.UserID == userID && ms.RoomID == roomID {
			m.memberships = append(m.memberships[:i], m.memberships[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *MockMembershipRepository) DeleteByRoom(roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.memberships[:0]
	for _, ms := range m.memberships {
		if ms.RoomID != roomID {
			kept = append(kept, ms)
		}
	}
	m.memberships = kept
	return nil
}

func (m *MockMembershipRepository) SetLastRead(userID, roomID string, lastRead time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.memberships {
		if ms.UserID == userID && ms.RoomID == roomID {
			t := lastRead
			ms.LastRead = &t
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *MockMembershipRepository) RenameRoom(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.memberships {
		if ms.RoomID == oldName {
			ms.RoomID = newName
		}
	}
	return nil
}

func (m *MockMembershipRepository) RenameUser(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.memberships {
		if ms.UserID == oldName {
			ms.UserID = newName
		}
	}
	return nil
}

// MockMessageRepository implements repository.MessageRepositoryInterface.
type MockMessageRepository struct {
	mu       sync.Mutex
	messages []*models.Message
	nextID   uint
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{nextID: 1}
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, message)
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) ListByRoom(room string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.Room == room {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *MockMessageRepository) DeleteByRoom(room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.Room != room {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *MockMessageRepository) RenameRoom(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.Room == oldName {
			msg.Room = newName
		}
	}
	return nil
}

func (m *MockMessageRepository) RenameUser(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.User == oldName {
			msg.User = newName
		}
	}
	return nil
}

// MockRefreshTokenRepository implements repository.RefreshTokenRepositoryInterface.
type MockRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{tokens: make(map[string]*models.RefreshToken)}
}

func (m *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *MockRefreshTokenRepository) FindValidByHash(tokenHash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, errors.New("record not found")
	}
	if token.IsRevoked() || time.Now().After(token.ExpiresAt) {
		return nil, errors.New("token invalid")
	}
	return token, nil
}

func (m *MockRefreshTokenRepository) RevokeByHash(tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[tokenHash]; ok {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

// MockMailer records outgoing mail instead of sending it.
type MockMailer struct {
	mu                 sync.Mutex
	verifications      map[string]string
	resets             map[string]string
	verificationsSent  int
	passwordResetsSent int
}

func NewMockMailer() *MockMailer {
	return &MockMailer{verifications: make(map[string]string), resets: make(map[string]string)}
}

func (m *MockMailer) SendVerification(to, displayName, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[to] = token
	m.verificationsSent++
	return nil
}

func (m *MockMailer) SendPasswordReset(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = token
	m.passwordResetsSent++
	return nil
}

func (m *MockMailer) VerificationToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifications[to]
}

func (m *MockMailer) ResetToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[to]
}
