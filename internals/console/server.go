// Package console serves the browser console: a small JSON API over the bot
// client plus the HTML page that drives it.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/Oudwins/botdesk/internals/botapi"
	"github.com/Oudwins/botdesk/internals/conf"
	"github.com/Oudwins/botdesk/internals/credstore"
	"github.com/Oudwins/botdesk/internals/env"
	"github.com/Oudwins/botdesk/internals/inbox"
	"github.com/Oudwins/botdesk/internals/logbuf"
	"github.com/Oudwins/botdesk/internals/poller"
)

type Server struct {
	Config *conf.Config
	Env    *env.EnvStruct
	Logger *slog.Logger
	Logbuf *logbuf.Logger
	Bot    *botapi.Client
	Poller *poller.Poller
	Inbox  *inbox.Inbox
	Store  *credstore.Store

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

func New(config *conf.Config, environment *env.EnvStruct, store *credstore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bot := botapi.NewClient(
		botapi.WithAPIHost(config.Bot.APIHost),
		botapi.WithHTTPClient(&http.Client{Timeout: config.RequestTimeout()}),
	)
	s := &Server{
		Config: config,
		Env:    environment,
		Logger: logger,
		Logbuf: logbuf.New(
			slog.String("version", config.Version),
			slog.Int("port", environment.PORT),
		),
		Bot:   bot,
		Inbox: inbox.New(config.Inbox.Capacity),
		Store: store,
	}
	s.Poller = poller.New(bot, s.receive,
		poller.WithInterval(config.PollEvery()),
		poller.WithLogger(logger.With(slog.String("component", "poller"))),
		poller.WithFailureObserver(s.pollFailed),
	)
	return s
}

// Restore sets the credential and starts polling. An empty override falls
// back to the stored credential; with neither, polling stays idle.
func (s *Server) Restore(ctx context.Context, override string) error {
	token := override
	if token == "" {
		stored, ok, err := s.Store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load credential: %w", err)
		}
		if !ok {
			s.Logger.Info("no stored credential, waiting for a token")
			return nil
		}
		token = stored
	}
	s.Bot.SetCredential(token)
	s.Poller.Start()
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

func (s *Server) Serve(listener net.Listener) error {
	server := &http.Server{
		Handler: s.Router(),
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	s.httpServer = server
	s.mu.Unlock()

	s.Logger.Info("console listening", slog.String("url", "http://"+listener.Addr().String()))
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops polling, drains HTTP and closes the store. It waits for an
// in-flight poll cycle so its cursor update is not lost. A Serve that starts
// after Shutdown returns at once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Poller.Stop()

	s.mu.Lock()
	s.closed = true
	server := s.httpServer
	s.mu.Unlock()

	var errs []error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	s.Poller.Wait()
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Server) receive(update botapi.Update) {
	card := s.Inbox.Add(update)
	s.Logger.Debug("message received",
		slog.Int64("update_id", card.UpdateID),
		slog.Int64("chat_id", card.ChatID),
	)
}

func (s *Server) pollFailed(err error) {
	s.Logger.Debug("poll cycle failed", slog.Any("error", err))
}
