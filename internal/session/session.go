// Package session holds the per-candidate conversation state and the stores
// that persist it.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/talent-intake/internal/schema"
)

// Profile is what the candidate told us about themselves.
type Profile struct {
	Name              string              `json:"name,omitempty"`
	Education         string              `json:"education,omitempty"`
	ExperienceSummary string              `json:"experience_summary,omitempty"`
	Experiences       []schema.Experience `json:"experiences,omitempty"`
	HardSkills        []string            `json:"hard_skills,omitempty"`
	LanguageLevel     string              `json:"language_level,omitempty"`
	DesiredTitle      string              `json:"desired_title,omitempty"`
}

// Qualification is the answer to the availability question.
type Qualification struct {
	Availability         string `json:"availability,omitempty"`
	AccommodationNeeded  bool   `json:"accommodation_needed,omitempty"`
	AccommodationDetails string `json:"accommodation_details,omitempty"`
	Sentiment            string `json:"sentiment,omitempty"`
	// Raw holds the verbatim answer when extraction failed.
	Raw string `json:"raw,omitempty"`
}

// Compliance records the consent gates and retention deadline.
type Compliance struct {
	ConsentGiven             bool       `json:"consent_given"`
	AIDisclosureAcknowledged bool       `json:"ai_disclosure_acknowledged"`
	ConsentTimestamp         *time.Time `json:"consent_timestamp,omitempty"`
	DataRetentionDate        time.Time  `json:"data_retention_date"`
	DispatchConsentTimestamp *time.Time `json:"dispatch_consent_timestamp,omitempty"`
	DispatchTimestamp        *time.Time `json:"dispatch_timestamp,omitempty"`
	DispatchID               string     `json:"dispatch_id,omitempty"`
}

// MatchRecord is the part of a job match kept until dispatch.
type MatchRecord struct {
	JobID  string  `json:"job_id"`
	Title  string  `json:"title"`
	City   string  `json:"city,omitempty"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Session is the durable state of one candidate conversation.
type Session struct {
	Identity string `json:"identity"`
	TenantID string `json:"tenant_id"`
	Stage    Stage  `json:"stage"`

	Profile          Profile       `json:"profile"`
	ProfileConfirmed bool          `json:"profile_confirmed,omitempty"`
	Qualification    Qualification `json:"qualification"`
	CandidateNote    string        `json:"candidate_note,omitempty"`
	NoteDeclined     bool          `json:"note_declined,omitempty"`
	Matches          []MatchRecord `json:"matches,omitempty"`

	Compliance Compliance `json:"compliance"`

	MatchedJobIDs []string  `json:"matched_job_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdate    time.Time `json:"last_update"`
	LastMessage   string    `json:"last_message,omitempty"`
}

// New returns a session in StageNew.
func New(identity, tenantID string, now time.Time) *Session {
	return &Session{
		Identity:   identity,
		TenantID:   tenantID,
		Stage:      StageNew,
		CreatedAt:  now,
		LastUpdate: now,
	}
}

// Advance moves the session to the next stage, refusing moves outside the graph.
func (s *Session) Advance(to Stage) error {
	if !IsTransitionAllowed(s.Stage, to) {
		return fmt.Errorf("transition %s → %s is not allowed", s.Stage, to)
	}
	s.Stage = to
	return nil
}

// Touch records activity and recomputes the retention deadline.
func (s *Session) Touch(now time.Time, retention time.Duration) {
	s.LastUpdate = now
	if retention > 0 {
		s.Compliance.DataRetentionDate = now.Add(retention)
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Profile.Experiences = append([]schema.Experience(nil), s.Profile.Experiences...)
	c.Profile.HardSkills = append([]string(nil), s.Profile.HardSkills...)
	c.Matches = append([]MatchRecord(nil), s.Matches...)
	c.MatchedJobIDs = append([]string(nil), s.MatchedJobIDs...)
	c.Compliance.ConsentTimestamp = cloneTime(s.Compliance.ConsentTimestamp)
	c.Compliance.DispatchConsentTimestamp = cloneTime(s.Compliance.DispatchConsentTimestamp)
	c.Compliance.DispatchTimestamp = cloneTime(s.Compliance.DispatchTimestamp)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// MissingRequired lists the required profile fields that are still empty.
func (p Profile) MissingRequired() []string {
	var missing []string
	for _, name := range schema.RequiredProfileFields {
		if !p.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Has reports whether the named profile field is populated.
func (p Profile) Has(field string) bool {
	switch field {
	case schema.FieldName:
		return strings.TrimSpace(p.Name) != ""
	case schema.FieldEducation:
		return strings.TrimSpace(p.Education) != ""
	case schema.FieldExperienceSummary:
		return strings.TrimSpace(p.ExperienceSummary) != ""
	case schema.FieldExperiences:
		return len(p.Experiences) > 0
	case schema.FieldHardSkills:
		return len(p.HardSkills) > 0
	case schema.FieldLanguageLevel:
		return strings.TrimSpace(p.LanguageLevel) != ""
	case schema.FieldDesiredTitle:
		return strings.TrimSpace(p.DesiredTitle) != ""
	default:
		return false
	}
}

// Record renders the profile for schema validation. Empty fields are null.
func (p Profile) Record() map[string]any {
	rec := map[string]any{
		schema.FieldName:              nullString(p.Name),
		schema.FieldEducation:         nullString(p.Education),
		schema.FieldExperienceSummary: nullString(p.ExperienceSummary),
		schema.FieldLanguageLevel:     nullString(p.LanguageLevel),
		schema.FieldDesiredTitle:      nullString(p.DesiredTitle),
		schema.FieldHardSkills:        nil,
		schema.FieldExperiences:       nil,
	}
	if len(p.HardSkills) > 0 {
		rec[schema.FieldHardSkills] = append([]string(nil), p.HardSkills...)
	}
	if len(p.Experiences) > 0 {
		items := make([]any, 0, len(p.Experiences))
		for _, e := range p.Experiences {
			items = append(items, map[string]any{
				"company":     nullString(e.Company),
				"role":        nullString(e.Role),
				"years":       e.Years,
				"description": nullString(e.Description),
			})
		}
		rec[schema.FieldExperiences] = items
	}
	return rec
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// ClearProfile drops every profile field, used when the candidate rejects the summary.
func (s *Session) ClearProfile() {
	s.Profile = Profile{}
	s.ProfileConfirmed = false
}

// PurgeSensitive removes personal data after dispatch, keeping identifiers,
// stage and timestamps.
func (s *Session) PurgeSensitive() {
	s.Profile = Profile{}
	s.Qualification = Qualification{}
	s.CandidateNote = ""
	s.LastMessage = ""
	s.Matches = nil
}
