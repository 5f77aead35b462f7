// Package dispatch forwards a minimized candidate summary to a human reviewer
// and strips the session of personal data once delivery is confirmed.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/session"
)

// ErrNotDelivered wraps every failure to hand a summary to the reviewer.
var ErrNotDelivered = errors.New("summary not delivered")

// Transports understood by the manager.
const (
	TransportRedis   = "redis"
	TransportWebhook = "webhook"
	TransportLog     = "log"
)

// Reviewer is where a tenant's summaries go.
type Reviewer struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Address   string `mapstructure:"address" yaml:"address"`
}

// Highlights is the part of the profile a reviewer needs.
type Highlights struct {
	Name                string   `json:"name,omitempty"`
	Education           string   `json:"education,omitempty"`
	ExperienceSummary   string   `json:"experience_summary,omitempty"`
	HardSkills          []string `json:"hard_skills,omitempty"`
	LanguageLevel       string   `json:"language_level,omitempty"`
	DesiredTitle        string   `json:"desired_title,omitempty"`
	Availability        string   `json:"availability,omitempty"`
	AccommodationNeeded bool     `json:"accommodation_needed,omitempty"`
	CandidateNote       string   `json:"candidate_note,omitempty"`
}

// Summary is the message sent to the reviewer.
type Summary struct {
	ID                       uuid.UUID             `json:"id"`
	TenantID                 string                `json:"tenant_id"`
	Identity                 string                `json:"identity"`
	Profile                  Highlights            `json:"profile"`
	Matches                  []session.MatchRecord `json:"matches"`
	ConsentTimestamp         *time.Time            `json:"consent_timestamp,omitempty"`
	DispatchConsentTimestamp *time.Time            `json:"dispatch_consent_timestamp,omitempty"`
	CreatedAt                time.Time             `json:"created_at"`
}

// BuildSummary copies the highlights of s. Raw documents and the transcript are never included.
func BuildSummary(s *session.Session, now time.Time) Summary {
	availability := s.Qualification.Availability
	if availability == "" {
		availability = s.Qualification.Raw
	}
	return Summary{
		ID:       uuid.New(),
		TenantID: s.TenantID,
		Identity: s.Identity,
		Profile: Highlights{
			Name:                s.Profile.Name,
			Education:           s.Profile.Education,
			ExperienceSummary:   s.Profile.ExperienceSummary,
			HardSkills:          append([]string(nil), s.Profile.HardSkills...),
			LanguageLevel:       s.Profile.LanguageLevel,
			DesiredTitle:        s.Profile.DesiredTitle,
			Availability:        availability,
			AccommodationNeeded: s.Qualification.AccommodationNeeded,
			CandidateNote:       s.CandidateNote,
		},
		Matches:                  append([]session.MatchRecord(nil), s.Matches...),
		ConsentTimestamp:         s.Compliance.ConsentTimestamp,
		DispatchConsentTimestamp: s.Compliance.DispatchConsentTimestamp,
		CreatedAt:                now,
	}
}

// Notifier delivers a summary to a reviewer address.
type Notifier interface {
	Notify(ctx context.Context, address string, summary Summary) error
}

// Manager routes summaries to the notifier of the reviewer's transport.
type Manager struct {
	notifiers map[string]Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager returns a manager using notifiers keyed by transport name.
func NewManager(notifiers map[string]Notifier, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{notifiers: notifiers, logger: log, now: time.Now}
}

// Dispatch sends the summary of s to reviewer. On confirmed delivery the
// sensitive fields of s are purged and the dispatch is timestamped; on
// failure s is left untouched and the error wraps ErrNotDelivered.
func (m *Manager) Dispatch(ctx context.Context, s *session.Session, reviewer Reviewer) (Summary, error) {
	summary := BuildSummary(s, m.now())

	notifier, ok := m.notifiers[reviewer.Transport]
	if !ok {
		return summary, fmt.Errorf("%w: unknown reviewer transport %q", ErrNotDelivered, reviewer.Transport)
	}
	if err := notifier.Notify(ctx, reviewer.Address, summary); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrNotDelivered, err)
	}

	at := summary.CreatedAt
	s.Compliance.DispatchTimestamp = &at
	s.Compliance.DispatchID = summary.ID.String()
	s.PurgeSensitive()

	m.logger.Info("summary dispatched",
		zap.String("dispatch_id", summary.ID.String()),
		zap.String("transport", reviewer.Transport),
		zap.Int("matches", len(summary.Matches)),
	)
	return summary, nil
}
