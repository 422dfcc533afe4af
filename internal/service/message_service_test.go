package service

import (
	"strings"
	"testing"
	"time"

	"github.com/NurFakhiraMohdSaufi/Chatify/internal/live"
	"github.com/NurFakhiraMohdSaufi/Chatify/internal/models"
)

func newMessageFixture() (*MessageService, *MockMessageRepository, *live.Broker) {
	messageRepo := NewMockMessageRepository()
	roomRepo := NewMockRoomRepository()
	roomRepo.Create(&models.Room{Name: "general", CreatedBy: "John"})
	broker := live.NewBroker()
	svc := NewMessageService(messageRepo, roomRepo, nil, broker)
	return svc, messageRepo, broker
}

func TestSendMessage(t *testing.T) {
	svc, _, _ := newMessageFixture()

	reply := "quoted text"
	tests := []struct {
		name      string
		room      string
		input     SendMessageInput
		shouldErr bool
	}{
		{"Plain text", "general", SendMessageInput{Text: "hello"}, false},
		{"Image only", "general", SendMessageInput{ImageURL: "/api/media/attachments/a.jpg"}, false},
		{"Text with reply", "general", SendMessageInput{Text: "agreed", ReplyTo: &reply}, false},
		{"Empty", "general", SendMessageInput{}, true},
		{"Whitespace only", "general", SendMessageInput{Text: "   "}, true},
		{"Unknown room", "no-such-room", SendMessageInput{Text: "hello"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, err := svc.Send("John", tt.room, tt.input)
			if (err != nil) != tt.shouldErr {
				t.Fatalf("Send error = %v, wantErr %v", err, tt.shouldErr)
			}
			if tt.shouldErr {
				return
			}
			if message.User != "John" || message.Room != tt.room {
				t.Errorf("message = %q in %q", message.User, message.Room)
			}
			if message.CreatedAt.IsZero() {
				t.Errorf("CreatedAt not assigned")
			}
		})
	}
}

func TestSendMessageTruncatesLongText(t *testing.T) {
	svc, _, _ := newMessageFixture()

	long := strings.Repeat("a", 10000)
	message, err := svc.Send("John", "general", SendMessageInput{Text: long})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(message.Text) >= len(long) {
		t.Errorf("text not truncated: %d chars", len(message.Text))
	}
}

func TestSendMessageNotifiesRoomStream(t *testing.T) {
	svc, _, broker := newMessageFixture()

	sub := broker.Subscribe(live.RoomTopic("general"))
	defer sub.Cancel()
	<-sub.C // initial notification

	if _, err := svc.Send("John", "general", SendMessageInput{Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatalf("room stream not notified on send")
	}
}

func TestListMessagesOrder(t *testing.T) {
	svc, messageRepo, _ := newMessageFixture()

	base := time.Now().Add(-time.Hour)
	messageRepo.Create(&models.Message{Room: "general", User: "John", Text: "first", CreatedAt: base})
	messageRepo.Create(&models.Message{Room: "general", User: "Jane", Text: "second", CreatedAt: base.Add(time.Minute)})
	messageRepo.Create(&models.Message{Room: "random", User: "Jane", Text: "elsewhere", CreatedAt: base})

	messages, err := svc.List("general")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Text != "first" || messages[1].Text != "second" {
		t.Errorf("order = %q, %q", messages[0].Text, messages[1].Text)
	}
}
