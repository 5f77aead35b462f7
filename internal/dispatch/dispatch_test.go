package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-intake/internal/session"
)

func testSession() *session.Session {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := session.New("wa:+34600000000", "acme", now)
	s.Stage = session.StageWaitingDispatchConsent
	s.Profile = session.Profile{
		Name:              "Ana",
		Education:         "Technical High School",
		ExperienceSummary: "3 years in logistics",
		HardSkills:        []string{"forklift"},
		LanguageLevel:     "B2",
	}
	s.Qualification = session.Qualification{Availability: "next week", Sentiment: "positive"}
	s.CandidateNote = "prefers mornings"
	s.Matches = []session.MatchRecord{{JobID: "wh-01", Title: "Warehouse operator", Score: 82}}
	s.MatchedJobIDs = []string{"wh-01"}
	consent := now.Add(-time.Hour)
	s.Compliance.ConsentTimestamp = &consent
	s.Compliance.DispatchConsentTimestamp = &now
	return s
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, string, Summary) error {
	return errors.New("connection refused")
}

func TestManagerPurgesAfterDelivery(t *testing.T) {
	var got Summary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewManager(map[string]Notifier{TransportWebhook: NewWebhookNotifier("tok")}, nil)
	s := testSession()

	summary, err := m.Dispatch(context.Background(), s, Reviewer{Transport: TransportWebhook, Address: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != summary.ID || got.Profile.Education != "Technical High School" || len(got.Matches) != 1 {
		t.Fatalf("reviewer got unexpected summary: %+v", got)
	}
	if got.Profile.Availability != "next week" || got.Profile.CandidateNote != "prefers mornings" {
		t.Fatalf("highlights missing: %+v", got.Profile)
	}

	if s.Profile.Education != "" || len(s.Profile.HardSkills) != 0 || s.CandidateNote != "" || s.Qualification.Availability != "" {
		t.Fatalf("sensitive fields not purged: %+v", s)
	}
	if s.Compliance.DispatchTimestamp == nil || s.Compliance.DispatchID != summary.ID.String() {
		t.Fatalf("dispatch not recorded: %+v", s.Compliance)
	}
	if s.Identity == "" || s.Compliance.ConsentTimestamp == nil || len(s.MatchedJobIDs) != 1 {
		t.Fatalf("identifiers and timestamps must be kept: %+v", s)
	}
}

func TestManagerFailureLeavesSession(t *testing.T) {
	tests := []struct {
		name     string
		reviewer Reviewer
	}{
		{"notifier error", Reviewer{Transport: "broken"}},
		{"unknown transport", Reviewer{Transport: "carrier-pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(map[string]Notifier{"broken": failingNotifier{}}, nil)
			s := testSession()
			before := s.Clone()

			_, err := m.Dispatch(context.Background(), s, tt.reviewer)
			if !errors.Is(err, ErrNotDelivered) {
				t.Fatalf("expected ErrNotDelivered, got %v", err)
			}
			if s.Profile.Education != before.Profile.Education || s.Compliance.DispatchTimestamp != nil {
				t.Fatalf("session changed on failure: %+v", s)
			}
		})
	}
}

func TestWebhookBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier("").Notify(context.Background(), srv.URL, BuildSummary(testSession(), time.Now())); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewManager(map[string]Notifier{TransportLog: NewLogNotifier(zap.New(core))}, zap.New(core))

	if _, err := m.Dispatch(context.Background(), testSession(), Reviewer{Transport: TransportLog, Address: "recruiting"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("candidate summary").All()
	if len(entries) != 1 || entries[0].ContextMap()["address"] != "recruiting" {
		t.Fatalf("expected one summary log entry, got %v", logs.All())
	}
}

func TestBuildSummaryFallsBackToRawQualification(t *testing.T) {
	s := testSession()
	s.Qualification = session.Qualification{Raw: "whenever you need"}

	if got := BuildSummary(s, time.Now()).Profile.Availability; got != "whenever you need" {
		t.Fatalf("unexpected availability %q", got)
	}
}

func TestRedisNotifier(t *testing.T) {
	url := os.Getenv("TALENT_INTAKE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TALENT_INTAKE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := session.NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	address := "test-inbox-" + time.Now().Format("150405.000000")
	defer rdb.Del(ctx, InboxKey(address))

	summary := BuildSummary(testSession(), time.Now())
	if err := NewRedisNotifier(rdb, nil).Notify(ctx, address, summary); err != nil {
		t.Fatalf("notify: %v", err)
	}

	raw, err := rdb.LPop(ctx, InboxKey(address)).Result()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	var got Summary
	if err := json.Unmarshal([]byte(raw), &got); err != nil || got.ID != summary.ID {
		t.Fatalf("unexpected inbox entry %s (%v)", raw, err)
	}
}
