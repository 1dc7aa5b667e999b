package schemas

import (
	"regexp"
	"strconv"

	z "github.com/Oudwins/zog"

	"github.com/Oudwins/botdesk/internals/inbox"
)

type TokenRequest struct {
	Token string `json:"token" zog:"token"`
}

var TokenSchema = z.Struct(z.Shape{
	"Token": z.String().Trim().Required(z.Message("token is required")).Min(1, z.Message("token is required")),
})

type WebhookSetRequest struct {
	URL string `json:"url" zog:"url"`
}

var WebhookSetSchema = z.Struct(z.Shape{
	"URL": z.String().Trim().Required(z.Message("url is required")).Min(1, z.Message("url is required")).URL(z.Message("url is not valid")),
})

type SendMessageRequest struct {
	ChatID string `json:"chat_id" zog:"chat_id"`
	Text   string `json:"text" zog:"text"`
}

var chatIDRegex = regexp.MustCompile(`^-?[0-9]+$`)

var SendMessageSchema = z.Struct(z.Shape{
	"ChatID": z.String().Trim().Required(z.Message("chat_id is required")).Min(1, z.Message("chat_id is required")).Match(chatIDRegex, z.Message("chat_id must be numeric")),
	"Text":   z.String().Trim().Required(z.Message("text is required")).Min(1, z.Message("text is required")),
})

// ChatIDValue parses ChatID. Call it only after SendMessageSchema validated the request.
func (r SendMessageRequest) ChatIDValue() (int64, error) {
	return strconv.ParseInt(r.ChatID, 10, 64)
}

type StatusResponse struct {
	HasCredential bool   `json:"has_credential"`
	Polling       bool   `json:"polling"`
	Cursor        *int64 `json:"cursor,omitempty"`
	Messages      int    `json:"messages"`
	Version       string `json:"version"`
}

type WebhookResponse struct {
	Enabled            bool   `json:"enabled"`
	URL                string `json:"url,omitempty"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

type ResultResponse struct {
	OK bool `json:"ok"`
}

type MessagesResponse struct {
	Messages []inbox.Card `json:"messages"`
	Chats    []inbox.Chat `json:"chats"`
	// Latest is the seq to pass as ?after= on the next request.
	Latest uint64 `json:"latest"`
}

type SentResponse struct {
	MessageID int64 `json:"message_id"`
	ChatID    int64 `json:"chat_id"`
}
