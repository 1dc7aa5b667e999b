package inbox

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Oudwins/botdesk/internals/botapi"
)

func update(id int64, chatID int64, from *botapi.User, text string) botapi.Update {
	return botapi.Update{UpdateID: id, Message: &botapi.Message{
		Chat: botapi.Chat{ID: chatID},
		From: from,
		Text: text,
		Date: 1700000000 + id,
	}}
}

func TestAddBuildsCard(t *testing.T) {
	box := New(10)
	card := box.Add(update(5, 9, &botapi.User{FirstName: "Ada", LastName: "Lovelace"}, "hi"))

	if _, err := uuid.Parse(card.ID); err != nil {
		t.Fatalf("expected uuid card id, got %q", card.ID)
	}
	if card.Seq != 1 || card.UpdateID != 5 || card.ChatID != 9 {
		t.Fatalf("unexpected card: %#v", card)
	}
	if card.From != "Ada Lovelace" || card.Text != "hi" {
		t.Fatalf("unexpected rendering: %#v", card)
	}
	if card.At.Unix() != 1700000005 {
		t.Fatalf("unexpected timestamp %v", card.At)
	}
}

func TestSenderNameFallbacks(t *testing.T) {
	cases := []struct {
		name string
		from *botapi.User
		want string
	}{
		{"full name", &botapi.User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, "Ada Lovelace"},
		{"first only", &botapi.User{FirstName: "Ada"}, "Ada"},
		{"username", &botapi.User{Username: "ada"}, "ada"},
		{"empty user", &botapi.User{}, "Unknown"},
		{"no user", nil, "Unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SenderName(&botapi.Message{From: tc.from}); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDisplayTextFallbacks(t *testing.T) {
	if got := DisplayText(&botapi.Message{Caption: "photo caption"}); got != "photo caption" {
		t.Fatalf("expected caption, got %q", got)
	}
	if got := DisplayText(&botapi.Message{Sticker: &botapi.Sticker{FileID: "x"}}); got != "Sticker received" {
		t.Fatalf("expected sticker placeholder, got %q", got)
	}
	if got := DisplayText(&botapi.Message{}); got != "Message received" {
		t.Fatalf("expected generic placeholder, got %q", got)
	}
}

func TestSinceAndCapacity(t *testing.T) {
	box := New(3)
	for i := int64(1); i <= 5; i++ {
		box.Add(update(i, 1, nil, "m"))
	}

	if box.Len() != 3 {
		t.Fatalf("expected 3 cards after eviction, got %d", box.Len())
	}
	all := box.Since(0)
	if len(all) != 3 || all[0].Seq != 3 || all[2].Seq != 5 {
		t.Fatalf("expected seqs 3..5 oldest first, got %#v", all)
	}
	if newer := box.Since(4); len(newer) != 1 || newer[0].UpdateID != 5 {
		t.Fatalf("expected only update 5, got %#v", newer)
	}
	if none := box.Since(5); len(none) != 0 {
		t.Fatalf("expected nothing after latest seq, got %#v", none)
	}
}

func TestChatsMostRecentFirst(t *testing.T) {
	box := New(10)
	box.Add(update(1, 100, &botapi.User{Username: "first"}, "a"))
	box.Add(update(2, 200, &botapi.User{Username: "second"}, "b"))
	box.Add(update(3, 100, &botapi.User{Username: "first"}, "c"))

	chats := box.Chats()
	if len(chats) != 2 {
		t.Fatalf("expected two chats, got %#v", chats)
	}
	if chats[0].ID != 100 || chats[1].ID != 200 {
		t.Fatalf("expected chat 100 first, got %#v", chats)
	}
	if chats[0].Title != "first" {
		t.Fatalf("expected sender as title, got %q", chats[0].Title)
	}
}
