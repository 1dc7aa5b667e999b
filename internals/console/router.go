package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/", s.HandlerIndex)
	r.Get("/version", s.HandlerVersion)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.HandlerStatus)
		r.Put("/token", s.HandlerSetToken)
		r.Delete("/token", s.HandlerClearToken)
		r.Get("/webhook", s.HandlerWebhookInfo)
		r.Post("/webhook", s.HandlerSetWebhook)
		r.Delete("/webhook", s.HandlerDeleteWebhook)
		r.Get("/messages", s.HandlerListMessages)
		r.Post("/messages", s.HandlerSendMessage)
		r.Post("/polling/start", s.HandlerStartPolling)
		r.Post("/polling/stop", s.HandlerStopPolling)
	})
	return r
}
