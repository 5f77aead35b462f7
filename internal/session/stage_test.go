package session_test

import (
	"testing"
	"time"

	"github.com/spigell/talent-intake/internal/session"
)

func TestParseStage(t *testing.T) {
	valid := []string{
		"new", "pending_consent", "collecting_data", "waiting_qualification",
		"waiting_candidate_note", "waiting_dispatch_consent", "dispatched", "offered_job", "completed",
	}
	for _, s := range valid {
		got, err := session.ParseStage(s)
		if err != nil {
			t.Errorf("ParseStage(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStage(%q) = %q, want %q", s, got, s)
		}
	}

	for _, s := range []string{"", "COMPLETED", "archived"} {
		if _, err := session.ParseStage(s); err == nil {
			t.Errorf("ParseStage(%q) expected error, got nil", s)
		}
	}
}

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to session.Stage
		want     bool
	}{
		{session.StageNew, session.StagePendingConsent, true},
		{session.StagePendingConsent, session.StageCollectingData, true},
		{session.StagePendingConsent, session.StageCompleted, true},
		{session.StageCollectingData, session.StageWaitingQualification, true},
		{session.StageWaitingQualification, session.StageWaitingCandidateNote, true},
		{session.StageWaitingCandidateNote, session.StageWaitingDispatchConsent, true},
		{session.StageWaitingDispatchConsent, session.StageDispatched, true},
		{session.StageDispatched, session.StageCompleted, true},
		{session.StageOfferedJob, session.StageCompleted, true},
		{session.StageCollectingData, session.StageCollectingData, true},

		{session.StageNew, session.StageCollectingData, false},
		{session.StageCollectingData, session.StageWaitingDispatchConsent, false},
		{session.StageWaitingQualification, session.StageCollectingData, false},
		{session.StageCompleted, session.StageNew, false},
		{session.StageCompleted, session.StagePendingConsent, false},
	}

	for _, tt := range tests {
		if got := session.IsTransitionAllowed(tt.from, tt.to); got != tt.want {
			t.Errorf("IsTransitionAllowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAdvanceRejectsSkips(t *testing.T) {
	s := session.New("id-1", "acme", time.Now())
	if err := s.Advance(session.StageCollectingData); err == nil {
		t.Fatal("expected error skipping consent")
	}
	if s.Stage != session.StageNew {
		t.Fatalf("stage must be unchanged, got %s", s.Stage)
	}
	if err := s.Advance(session.StagePendingConsent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPurgeSensitiveKeepsIdentifiers(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := session.New("id-1", "acme", now)
	s.Profile = session.Profile{Name: "Ana", Education: "University", HardSkills: []string{"go"}}
	s.Qualification.Availability = "mornings"
	s.CandidateNote = "thanks"
	s.LastMessage = "yes"
	s.MatchedJobIDs = []string{"j1"}
	s.Compliance.DispatchTimestamp = &now
	s.Compliance.DispatchID = "d-1"

	s.PurgeSensitive()

	if s.Profile.Name != "" || s.Profile.Education != "" || len(s.Profile.HardSkills) != 0 {
		t.Fatalf("profile not purged: %+v", s.Profile)
	}
	if s.Qualification.Availability != "" || s.CandidateNote != "" || s.LastMessage != "" {
		t.Fatal("free text not purged")
	}
	if s.Identity != "id-1" || s.TenantID != "acme" || len(s.MatchedJobIDs) != 1 ||
		s.Compliance.DispatchTimestamp == nil || s.Compliance.DispatchID != "d-1" {
		t.Fatalf("identifiers or timestamps lost: %+v", s)
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	s := session.New("id-1", "acme", now)
	s.Profile.HardSkills = []string{"go"}
	s.Compliance.ConsentTimestamp = &now

	c := s.Clone()
	c.Profile.HardSkills[0] = "rust"
	*c.Compliance.ConsentTimestamp = now.Add(time.Hour)

	if s.Profile.HardSkills[0] != "go" || !s.Compliance.ConsentTimestamp.Equal(now) {
		t.Fatal("clone shares state with the original")
	}
}

func TestMissingRequired(t *testing.T) {
	p := session.Profile{Education: "School", ExperienceSummary: "5 years", HardSkills: []string{"welding"}}
	missing := p.MissingRequired()
	if len(missing) != 1 || missing[0] != "language_level" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}
