// Package inbox keeps the messages seen by the polling loop in a display-ready
// form for the browser and terminal consoles.
package inbox

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Oudwins/botdesk/internals/assert"
	"github.com/Oudwins/botdesk/internals/botapi"
)

const (
	DefaultCapacity = 200
	recentChats     = 20

	unknownSender  = "Unknown"
	stickerText    = "Sticker received"
	placeholderMsg = "Message received"
)

type Card struct {
	ID       string    `json:"id"`
	Seq      uint64    `json:"seq"`
	UpdateID int64     `json:"update_id"`
	ChatID   int64     `json:"chat_id"`
	From     string    `json:"from"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Chat is a recently active conversation, usable as a reply target.
type Chat struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	LastSeen time.Time `json:"last_seen"`
}

type Inbox struct {
	mu       sync.Mutex
	capacity int
	cards    []Card
	seq      uint64
	chats    *lru.Cache[int64, Chat]
}

func New(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	chats, err := lru.New[int64, Chat](recentChats)
	assert.NoError(err, "create recent chats cache")
	return &Inbox{
		capacity: capacity,
		chats:    chats,
	}
}

// Add records the message carried by update and returns its card.
func (i *Inbox) Add(update botapi.Update) Card {
	msg := update.Message
	if msg == nil {
		msg = &botapi.Message{}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.seq++
	card := Card{
		ID:       uuid.NewString(),
		Seq:      i.seq,
		UpdateID: update.UpdateID,
		ChatID:   msg.Chat.ID,
		From:     SenderName(msg),
		Text:     DisplayText(msg),
		At:       msg.Time(),
	}
	i.cards = append(i.cards, card)
	if over := len(i.cards) - i.capacity; over > 0 {
		i.cards = append(i.cards[:0:0], i.cards[over:]...)
	}

	title := msg.Chat.Title
	if title == "" {
		title = card.From
	}
	i.chats.Add(msg.Chat.ID, Chat{ID: msg.Chat.ID, Title: title, LastSeen: card.At})
	return card
}

// Since returns the cards with a sequence number above seq, oldest first.
func (i *Inbox) Since(seq uint64) []Card {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]Card, 0)
	for _, card := range i.cards {
		if card.Seq > seq {
			out = append(out, card)
		}
	}
	return out
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.cards)
}

// Chats returns recently active chats, most recent first.
func (i *Inbox) Chats() []Chat {
	keys := i.chats.Keys()
	out := make([]Chat, 0, len(keys))
	for idx := len(keys) - 1; idx >= 0; idx-- {
		if chat, ok := i.chats.Peek(keys[idx]); ok {
			out = append(out, chat)
		}
	}
	return out
}

// SenderName prefers the full name, then the username.
func SenderName(msg *botapi.Message) string {
	if msg.From == nil {
		return unknownSender
	}
	parts := make([]string, 0, 2)
	for _, part := range []string{msg.From.FirstName, msg.From.LastName} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if msg.From.Username != "" {
		return msg.From.Username
	}
	return unknownSender
}

// DisplayText falls back to the caption and then to a placeholder for
// non-text messages.
func DisplayText(msg *botapi.Message) string {
	switch {
	case msg.Text != "":
		return msg.Text
	case msg.Caption != "":
		return msg.Caption
	case msg.Sticker != nil:
		return stickerText
	default:
		return placeholderMsg
	}
}
