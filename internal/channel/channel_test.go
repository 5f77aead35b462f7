package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSubmitter) Submit(ev Event) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	done := make(chan struct{})
	close(done)
	return done
}

func TestHandlerEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"text", `{"identity":"u1","text":"hola"}`, http.StatusAccepted},
		{"media", `{"identity":"u1","media":{"url":"http://x/cv.pdf","mime_type":"application/pdf"}}`, http.StatusAccepted},
		{"no identity", `{"text":"hola"}`, http.StatusBadRequest},
		{"empty", `{"identity":"u1"}`, http.StatusBadRequest},
		{"broken json", `{"identity":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &recordingSubmitter{}
			mux := http.NewServeMux()
			NewHandler(sub, "test", nil).RegisterRoutes(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body)))

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if accepted := tt.code == http.StatusAccepted; accepted != (len(sub.events) == 1) {
				t.Fatalf("unexpected submitted events: %+v", sub.events)
			}
		})
	}
}

func TestHandlerMethodAndHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(&recordingSubmitter{}, "1.2.3", nil).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["version"] != "1.2.3" {
		t.Fatalf("unexpected health response %v (%v)", body, err)
	}
}

func TestWebhookMessenger(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if r.Header.Get("Authorization") != "Bearer t" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	if err := NewWebhookMessenger(srv.URL, "t").Send(context.Background(), "u1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["identity"] != "u1" || got["text"] != "hello" {
		t.Fatalf("unexpected payload %v", got)
	}
	if err := NewWebhookMessenger(srv.URL, "wrong").Send(context.Background(), "u1", "hello"); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestConsoleAndLogMessengers(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsoleMessenger(&buf).Send(context.Background(), "u1", "hello"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("unexpected console output %q", buf.String())
	}

	core, logs := observer.New(zapcore.InfoLevel)
	_ = NewLogMessenger(zap.New(core)).Send(context.Background(), "u1", "hello")
	if logs.FilterMessage("reply").Len() != 1 {
		t.Fatalf("expected a reply log entry, got %v", logs.All())
	}
}
