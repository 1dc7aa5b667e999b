package console

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Oudwins/botdesk/internals/logbuf"
)

func TestMiddlewareStatusRecorder(t *testing.T) {
	recorder := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: recorder}

	_, _ = sr.Write([]byte("ok"))
	if sr.status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", sr.status)
	}

	recorder = httptest.NewRecorder()
	sr = &statusRecorder{ResponseWriter: recorder}
	sr.WriteHeader(http.StatusNotFound)
	if sr.status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", sr.status)
	}
}

func TestMiddlewareLoggerPanic(t *testing.T) {
	s := &Server{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Logbuf: logbuf.New(),
	}

	handler := s.MiddlewareLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/version", nil)
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
}

func TestMiddlewareLoggerRequestID(t *testing.T) {
	var out bytes.Buffer
	s := &Server{
		Logger: slog.New(slog.NewJSONHandler(&out, nil)),
		Logbuf: logbuf.New(),
	}
	handler := s.MiddlewareLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestLogger(r).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	request.Header.Set("X-Request-Id", "req-1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("expected request id to be echoed, got %q", recorder.Header().Get("X-Request-Id"))
	}
	logged := out.String()
	for _, want := range []string{`"request_id":"req-1"`, `"status":204`, `"inside handler"`} {
		if !strings.Contains(logged, want) {
			t.Fatalf("expected %s in log record %s", want, logged)
		}
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
}
