// Package testutil provides a scripted Bot API server for tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type TelegramRequest struct {
	Token      string
	Method     string
	HTTPMethod string
	Path       string
	Body       string
}

// FakeTelegram answers /bot<token>/<method> requests. Queued responses are
// used once, then the per-method default applies. Without either, getUpdates
// returns an empty list and everything else returns true.
type FakeTelegram struct {
	*httptest.Server

	mu       sync.Mutex
	requests []TelegramRequest
	queued   map[string][]string
	defaults map[string]string
}

func NewFakeTelegram(t *testing.T) *FakeTelegram {
	t.Helper()
	fake := &FakeTelegram{
		queued:   map[string][]string{},
		defaults: map[string]string{},
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Close)
	return fake
}

func (f *FakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	token, method := splitPath(r.URL.Path)

	f.mu.Lock()
	f.requests = append(f.requests, TelegramRequest{
		Token:      token,
		Method:     method,
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Body:       string(body),
	})
	response := f.next(method)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(response))
}

func (f *FakeTelegram) next(method string) string {
	if queued := f.queued[method]; len(queued) > 0 {
		f.queued[method] = queued[1:]
		return queued[0]
	}
	if response, ok := f.defaults[method]; ok {
		return response
	}
	if method == "getUpdates" {
		return `{"ok":true,"result":[]}`
	}
	return `{"ok":true,"result":true}`
}

// Respond queues one-shot bodies for method.
func (f *FakeTelegram) Respond(method string, bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued[method] = append(f.queued[method], bodies...)
}

// Default sets the body returned for method once its queue is empty.
func (f *FakeTelegram) Default(method string, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults[method] = body
}

// Requests returns the recorded requests for method, or all of them when
// method is empty.
func (f *FakeTelegram) Requests(method string) []TelegramRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TelegramRequest, 0, len(f.requests))
	for _, req := range f.requests {
		if method == "" || req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

// TempDBPath returns a database path inside a fresh temp dir.
func TempDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func splitPath(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "", trimmed
	}
	return strings.TrimPrefix(trimmed[:idx], "bot"), trimmed[idx+1:]
}
