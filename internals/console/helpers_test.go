package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Oudwins/botdesk/internals/conf"
	"github.com/Oudwins/botdesk/internals/credstore"
	"github.com/Oudwins/botdesk/internals/env"
)

func newTestServer(t *testing.T, apiHost string) *Server {
	t.Helper()
	dir := t.TempDir()
	config, err := conf.Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	config.Bot.APIHost = apiHost
	config.Bot.PollInterval = "1h"
	config.Version = "9.9.9-test"

	store, err := credstore.Open(context.Background(), filepath.Join(dir, credstore.FileName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	s := New(config, &env.EnvStruct{LISTEN_ADDR: "127.0.0.1:0"}, store, nil)
	t.Cleanup(func() {
		s.Poller.Stop()
		s.Poller.Wait()
		_ = store.Close()
	})
	return s
}

func doRequest(t *testing.T, s *Server, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	s.Router().ServeHTTP(recorder, request)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
