package console

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Oudwins/botdesk/internals/schemas"

	z "github.com/Oudwins/zog"
)

//go:embed assets/index.html
var assets embed.FS

var indexTemplate = template.Must(template.ParseFS(assets, "assets/index.html"))

type indexData struct {
	Version        string
	PollIntervalMs int64
}

func (s *Server) HandlerIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		Version:        s.Config.Version,
		PollIntervalMs: s.Config.PollEvery().Milliseconds(),
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		requestLogger(r).Error("render index", slog.Any("error", err))
	}
}

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Config.Version))
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, s.status())
}

func (s *Server) status() schemas.StatusResponse {
	response := schemas.StatusResponse{
		HasCredential: s.Bot.HasCredential(),
		Polling:       s.Poller.Running(),
		Messages:      s.Inbox.Len(),
		Version:       s.Config.Version,
	}
	if cursor, ok := s.Poller.Cursor(); ok {
		response.Cursor = &cursor
	}
	return response
}

func (s *Server) HandlerSetToken(w http.ResponseWriter, r *http.Request) {
	var request schemas.TokenRequest
	if !decodeAndValidate(w, r, &request, schemas.TokenSchema) {
		return
	}

	if err := s.Store.Save(r.Context(), request.Token); err != nil {
		requestLogger(r).Error("save credential", slog.Any("error", err))
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, "Couldn't save the token", nil), Render.Status(http.StatusInternalServerError))
		return
	}
	s.Bot.SetCredential(request.Token)
	s.Poller.Stop()
	s.Poller.Start()
	requestLogger(r).Info("credential updated")

	RenderJSON(w, r, s.status())
}

func (s *Server) HandlerClearToken(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Clear(r.Context()); err != nil {
		requestLogger(r).Error("clear credential", slog.Any("error", err))
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, "Couldn't clear the token", nil), Render.Status(http.StatusInternalServerError))
		return
	}
	s.Poller.Stop()
	s.Bot.SetCredential("")
	requestLogger(r).Info("credential cleared")

	RenderJSON(w, r, s.status())
}

func (s *Server) HandlerWebhookInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Bot.GetWebhookInfo(r.Context())
	if err != nil {
		requestLogger(r).Warn("get webhook info", slog.Any("error", err))
		RenderBotError(w, r, err)
		return
	}
	RenderJSON(w, r, schemas.WebhookResponse{
		Enabled:            info.URL != "",
		URL:                info.URL,
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorMessage:   info.LastErrorMessage,
	})
}

func (s *Server) HandlerSetWebhook(w http.ResponseWriter, r *http.Request) {
	var request schemas.WebhookSetRequest
	if !decodeAndValidate(w, r, &request, schemas.WebhookSetSchema) {
		return
	}
	ok, err := s.Bot.SetWebhook(r.Context(), request.URL)
	if err != nil {
		requestLogger(r).Warn("set webhook", slog.Any("error", err))
		RenderBotError(w, r, err)
		return
	}
	RenderJSON(w, r, schemas.ResultResponse{OK: ok})
}

func (s *Server) HandlerDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Bot.DeleteWebhook(r.Context())
	if err != nil {
		requestLogger(r).Warn("delete webhook", slog.Any("error", err))
		RenderBotError(w, r, err)
		return
	}
	RenderJSON(w, r, schemas.ResultResponse{OK: ok})
}

func (s *Server) HandlerListMessages(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "after must be a non-negative integer", nil), Render.Status(http.StatusBadRequest))
			return
		}
		after = parsed
	}

	cards := s.Inbox.Since(after)
	latest := after
	if len(cards) > 0 {
		latest = cards[len(cards)-1].Seq
	}
	RenderJSON(w, r, schemas.MessagesResponse{
		Messages: cards,
		Chats:    s.Inbox.Chats(),
		Latest:   latest,
	})
}

func (s *Server) HandlerSendMessage(w http.ResponseWriter, r *http.Request) {
	var request schemas.SendMessageRequest
	if !decodeAndValidate(w, r, &request, schemas.SendMessageSchema) {
		return
	}
	chatID, err := request.ChatIDValue()
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "chat_id is out of range", nil), Render.Status(http.StatusBadRequest))
		return
	}

	message, err := s.Bot.SendMessage(r.Context(), chatID, request.Text)
	if err != nil {
		requestLogger(r).Warn("send message", slog.Any("error", err), slog.Int64("chat_id", chatID))
		RenderBotError(w, r, err)
		return
	}
	requestLogger(r).Info("message sent", slog.Int64("chat_id", chatID))

	response := schemas.SentResponse{ChatID: chatID}
	if message != nil {
		response.MessageID = message.MessageID
	}
	RenderJSON(w, r, response)
}

func (s *Server) HandlerStartPolling(w http.ResponseWriter, r *http.Request) {
	if !s.Bot.HasCredential() {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeCredentialMissing, "Set a token before polling", nil), Render.Status(http.StatusPreconditionFailed))
		return
	}
	s.Poller.Start()
	RenderJSON(w, r, s.status())
}

func (s *Server) HandlerStopPolling(w http.ResponseWriter, r *http.Request) {
	s.Poller.Stop()
	RenderJSON(w, r, s.status())
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any, schema *z.StructSchema) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return false
	}
	if issues := schema.Validate(dst); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return false
	}
	return true
}
