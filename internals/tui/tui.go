// Package tui is the terminal console: a live message list fed by the polling
// loop and a reply form.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/inbox"
	"github.com/Oudwins/botdesk/internals/poller"
	"github.com/Oudwins/botdesk/internals/schemas"
	"github.com/Oudwins/botdesk/internals/timeouts"

	z "github.com/Oudwins/zog"
)

const visibleCards = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) (*botapi.Message, error)
}

// CardMsg carries a newly received message into the program.
type CardMsg inbox.Card

type sentMsg struct {
	chatID int64
	err    error
}

type model struct {
	sender    Sender
	inputs    []textinput.Model
	focus     int
	cards     []inbox.Card
	status    string
	statusErr bool
	sending   bool
	// polling reports whether fetches are currently happening.
	polling func() bool
}

// Run polls with bot until the user quits. Received messages are rendered as
// they arrive and the form replies through bot.
func Run(bot *botapi.Client, box *inbox.Inbox, interval time.Duration, logger *slog.Logger) error {
	var program *tea.Program
	loop := poller.New(bot, func(update botapi.Update) {
		program.Send(CardMsg(box.Add(update)))
	},
		poller.WithInterval(interval),
		poller.WithLogger(logger),
		poller.WithFailureObserver(func(err error) {
			logger.Debug("poll cycle failed", slog.Any("error", err))
		}),
	)

	m := newModel(bot)
	m.polling = func() bool {
		return loop.Running() && bot.HasCredential()
	}
	program = tea.NewProgram(m, tea.WithAltScreen())

	if !loop.Start() {
		return botapi.ErrCredentialMissing
	}
	defer func() {
		loop.Stop()
		loop.Wait()
	}()

	_, err := program.Run()
	return err
}

func newModel(sender Sender) model {
	chatID := textinput.New()
	chatID.Prompt = "Chat ID: "
	chatID.Placeholder = "123456789"
	chatID.CharLimit = 20

	text := textinput.New()
	text.Prompt = "Reply:   "
	text.Placeholder = "type a message"

	inputs := []textinput.Model{chatID, text}
	inputs[1].Focus()
	return model{sender: sender, inputs: inputs, focus: 1}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CardMsg:
		m.cards = append(m.cards, inbox.Card(msg))
		if over := len(m.cards) - visibleCards; over > 0 {
			m.cards = m.cards[over:]
		}
		if strings.TrimSpace(m.inputs[0].Value()) == "" {
			m.inputs[0].SetValue(fmt.Sprint(msg.ChatID))
		}
		return m, nil
	case sentMsg:
		m.sending = false
		if msg.err != nil {
			m.setStatus("Error: "+msg.err.Error(), true)
			return m, nil
		}
		m.inputs[1].SetValue("")
		m.setStatus(fmt.Sprintf("Message sent to %d", msg.chatID), false)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			return m.moveFocus(1)
		case "shift+tab":
			return m.moveFocus(-1)
		case "ctrl+r":
			if len(m.cards) > 0 {
				m.inputs[0].SetValue(fmt.Sprint(m.cards[len(m.cards)-1].ChatID))
			}
			return m, nil
		case "enter":
			if m.focus == 0 {
				return m.moveFocus(1)
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	request := schemas.SendMessageRequest{
		ChatID: m.inputs[0].Value(),
		Text:   m.inputs[1].Value(),
	}
	if issues := schemas.SendMessageSchema.Validate(&request); len(issues) > 0 {
		m.setStatus(firstIssue(z.Issues.Flatten(issues)), true)
		return m, nil
	}
	chatID, err := request.ChatIDValue()
	if err != nil {
		m.setStatus("chat_id is out of range", true)
		return m, nil
	}

	m.sending = true
	m.setStatus("Sending...", false)
	sender := m.sender
	text := request.Text
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondDefault)
		defer cancel()
		_, err := sender.SendMessage(ctx, chatID, text)
		return sentMsg{chatID: chatID, err: err}
	}
}

func (m *model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusErr = isErr
}

func (m model) View() string {
	var lines []string
	state := activeStyle.Render("● polling")
	if m.polling != nil && !m.polling() {
		state = pausedStyle.Render("○ paused")
	}
	lines = append(lines, titleStyle.Render("botdesk")+"  "+state, "")

	if len(m.cards) == 0 {
		lines = append(lines, metaStyle.Render("Waiting for messages..."))
	}
	for _, card := range m.cards {
		meta := fmt.Sprintf("%s · chat %d · %s", card.From, card.ChatID, card.At.Format("15:04:05"))
		lines = append(lines, metaStyle.Render(meta), "  "+card.Text)
	}

	form := make([]string, 0, len(m.inputs))
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		form = append(form, fmt.Sprintf("%s %s", marker, input.View()))
	}
	lines = append(lines, "", boxStyle.Render(strings.Join(form, "\n")))

	if m.status != "" {
		style := okStyle
		if m.statusErr {
			style = errStyle
		}
		lines = append(lines, style.Render(m.status))
	}
	lines = append(lines, helpStyle.Render("Tab: next field  Enter: send  Ctrl+R: reply to latest  Esc: quit"))
	return strings.Join(lines, "\n")
}

func (m model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}

func firstIssue(issues map[string][]string) string {
	for _, key := range []string{"chat_id", "ChatID", "text", "Text"} {
		if messages := issues[key]; len(messages) > 0 {
			return messages[0]
		}
	}
	for _, messages := range issues {
		if len(messages) > 0 {
			return messages[0]
		}
	}
	return "invalid reply"
}
