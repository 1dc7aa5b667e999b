package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/inbox"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
	err   error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) (*botapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	f.chats = append(f.chats, chatID)
	if f.err != nil {
		return nil, f.err
	}
	return &botapi.Message{MessageID: 1, Chat: botapi.Chat{ID: chatID}, Text: text}, nil
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func enter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestCardFillsEmptyChatID(t *testing.T) {
	m := newModel(&fakeSender{})
	m, _ = update(m, CardMsg(inbox.Card{Seq: 1, ChatID: 9, From: "Ada", Text: "hi", At: time.Unix(0, 0)}))

	if got := m.inputs[0].Value(); got != "9" {
		t.Fatalf("expected chat id 9, got %q", got)
	}
	view := m.View()
	if !strings.Contains(view, "hi") || !strings.Contains(view, "Ada") {
		t.Fatalf("expected card in view, got %q", view)
	}

	m, _ = update(m, CardMsg(inbox.Card{Seq: 2, ChatID: 10, Text: "other"}))
	if got := m.inputs[0].Value(); got != "9" {
		t.Fatalf("expected chat id to stay 9, got %q", got)
	}
}

func TestCardsAreBounded(t *testing.T) {
	m := newModel(&fakeSender{})
	for i := 0; i < visibleCards+5; i++ {
		m, _ = update(m, CardMsg(inbox.Card{Seq: uint64(i + 1), ChatID: 1, Text: "m"}))
	}
	if len(m.cards) != visibleCards {
		t.Fatalf("expected %d cards, got %d", visibleCards, len(m.cards))
	}
	if m.cards[0].Seq != 6 {
		t.Fatalf("expected oldest cards to be dropped, first seq %d", m.cards[0].Seq)
	}
}

func TestSubmitSendsReply(t *testing.T) {
	sender := &fakeSender{}
	m := newModel(sender)
	m.inputs[0].SetValue("42")
	m.inputs[1].SetValue("hello")

	m, cmd := update(m, enter())
	if cmd == nil {
		t.Fatalf("expected a send command")
	}
	if !m.sending {
		t.Fatalf("expected model to be sending")
	}

	m, _ = update(m, cmd())
	if len(sender.sent) != 1 || sender.sent[0] != "hello" || sender.chats[0] != 42 {
		t.Fatalf("unexpected sends: %v %v", sender.sent, sender.chats)
	}
	if m.statusErr || !strings.Contains(m.status, "42") {
		t.Fatalf("expected success status, got %q", m.status)
	}
	if m.inputs[1].Value() != "" {
		t.Fatalf("expected reply field to be cleared")
	}
}

func TestSubmitShowsRemoteError(t *testing.T) {
	sender := &fakeSender{err: &botapi.RemoteRejectedError{Method: "sendMessage", Description: "Bad Request: chat not found"}}
	m := newModel(sender)
	m.inputs[0].SetValue("42")
	m.inputs[1].SetValue("hello")

	m, cmd := update(m, enter())
	m, _ = update(m, cmd())
	if !m.statusErr || !strings.Contains(m.status, "chat not found") {
		t.Fatalf("expected error status, got %q", m.status)
	}
	if m.inputs[1].Value() != "hello" {
		t.Fatalf("expected reply to be kept after a failure")
	}
}

func TestSubmitValidatesLocally(t *testing.T) {
	sender := &fakeSender{}
	m := newModel(sender)
	m.inputs[0].SetValue("not-a-number")
	m.inputs[1].SetValue("hello")

	m, cmd := update(m, enter())
	if cmd != nil {
		t.Fatalf("expected no command for an invalid chat id")
	}
	if !m.statusErr {
		t.Fatalf("expected an error status")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected nothing sent")
	}
}

func TestEnterOnChatIDMovesFocus(t *testing.T) {
	m := newModel(&fakeSender{})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 0 {
		t.Fatalf("expected focus to wrap to chat id, got %d", m.focus)
	}
	m, _ = update(m, enter())
	if m.focus != 1 {
		t.Fatalf("expected focus on reply, got %d", m.focus)
	}
}

func TestReplyToLatest(t *testing.T) {
	m := newModel(&fakeSender{})
	m, _ = update(m, CardMsg(inbox.Card{Seq: 1, ChatID: 1}))
	m, _ = update(m, CardMsg(inbox.Card{Seq: 2, ChatID: 2}))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := m.inputs[0].Value(); got != "2" {
		t.Fatalf("expected latest chat id, got %q", got)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newModel(&fakeSender{})
	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}


func TestHeaderFollowsPollingState(t *testing.T) {
	polling := true
	m := newModel(&fakeSender{})
	m.polling = func() bool { return polling }

	if view := m.View(); !strings.Contains(view, "polling") {
		t.Fatalf("expected polling state in header, got %q", view)
	}
	polling = false
	view := m.View()
	if !strings.Contains(view, "paused") || strings.Contains(view, "● polling") {
		t.Fatalf("expected paused state in header, got %q", view)
	}
}
