package conversation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/document"
	"github.com/spigell/talent-intake/internal/intent"
	"github.com/spigell/talent-intake/internal/matching"
	"github.com/spigell/talent-intake/internal/merge"
	"github.com/spigell/talent-intake/internal/messages"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
	"github.com/spigell/talent-intake/internal/tenant"
)

const qualificationPrompt = `You read a job candidate's answer about availability and working conditions.
Extract:
- availability: when and how much they can work, in their own words, shortened
- accommodation_needed: true only if they ask for an adjustment or accommodation to work
- accommodation_details: what they asked for, or null
- sentiment: the overall tone of the answer (positive, neutral or negative)
Do not record health details beyond what is needed to describe the accommodation.`

var noteDeclines = map[string]bool{
	"no": true, "nope": true, "nothing": true, "no thanks": true, "no thank you": true,
	"none": true, "nothing else": true, "skip": true,
	"nada": true, "no gracias": true, "nada más": true, "nada mas": true, "ninguna": true, "ninguno": true,
}

func (m *Machine) consent(ctx context.Context, t *turn) error {
	question := m.catalog.Text(t.tenant.Locale, messages.Disclosure)

	switch got := m.deps.Classifier.Classify(ctx, question, t.text); got {
	case intent.Affirm:
		now := m.now()
		t.sess.Compliance.ConsentGiven = true
		t.sess.Compliance.AIDisclosureAcknowledged = true
		t.sess.Compliance.ConsentTimestamp = &now
		m.say(t, messages.AskProfile)
		return t.sess.Advance(session.StageCollectingData)
	case intent.Refuse:
		m.say(t, messages.ConsentRefused)
		t.deleted = true
		return t.sess.Advance(session.StageCompleted)
	default:
		m.say(t, messages.ConsentUnclear)
		return nil
	}
}

func (m *Machine) collect(ctx context.Context, t *turn) error {
	if t.ev.Media != nil && strings.TrimSpace(t.ev.Media.URL) != "" {
		return m.collectDocument(ctx, t)
	}

	if len(t.sess.Profile.MissingRequired()) == 0 {
		return m.confirmProfile(ctx, t)
	}

	if t.text == "" {
		m.say(t, messages.AskProfile)
		return nil
	}

	m.say(t, messages.Noted)
	identity, text := t.sess.Identity, t.text
	t.after = append(t.after, func() { m.extractInBackground(identity, text) })
	return nil
}

func (m *Machine) collectDocument(ctx context.Context, t *turn) error {
	result, err := m.deps.Documents.Process(ctx, *t.ev.Media)
	if err != nil {
		t.log.Warn("document rejected", zap.Error(err), zap.String("mime_type", t.ev.Media.MIMEType))
		if id := documentMessage(err); id == messages.DocOversize {
			m.say(t, id, m.cfg.MaxDocumentBytes>>20)
		} else {
			m.say(t, id)
		}
		return nil
	}

	merged := merge.Apply(t.sess, result)
	if merged.Err != nil {
		t.log.Warn("document merge discarded", zap.Error(merged.Err))
	} else {
		*t.sess = *merged.Session
		t.log.Info("document merged", zap.Strings("adopted", merged.Adopted))
	}

	missing := t.sess.Profile.MissingRequired()
	if len(missing) > 0 {
		m.say(t, messages.DocumentProcessed)
		m.say(t, messages.AskMissing, m.fieldList(t.tenant, missing))
		return nil
	}

	t.sess.ProfileConfirmed = true
	m.say(t, messages.DocumentSummary, m.profileSummary(t.tenant, t.sess.Profile))
	m.say(t, messages.AskQualification)
	return t.sess.Advance(session.StageWaitingQualification)
}

func (m *Machine) confirmProfile(ctx context.Context, t *turn) error {
	question := m.catalog.Text(t.tenant.Locale, messages.ProfileSummary, m.profileSummary(t.tenant, t.sess.Profile))

	switch m.deps.Classifier.Classify(ctx, question, t.text) {
	case intent.Affirm:
		t.sess.ProfileConfirmed = true
		m.say(t, messages.AskQualification)
		return t.sess.Advance(session.StageWaitingQualification)
	case intent.Refuse:
		t.sess.ClearProfile()
		m.say(t, messages.ProfileDenied)
		return nil
	default:
		m.say(t, messages.ConfirmUnclear)
		return nil
	}
}

func (m *Machine) qualify(ctx context.Context, t *turn) error {
	q := session.Qualification{Raw: t.text}

	var out schema.QualificationResult
	err := m.deps.Extractor.ExtractInto(ctx, ai.UserText(ai.ModelFast, qualificationPrompt, t.text, schema.Qualification), &out)
	if err == nil {
		q = session.Qualification{
			Availability:         out.Availability,
			AccommodationNeeded:  out.AccommodationNeeded,
			AccommodationDetails: out.AccommodationDetails,
			Sentiment:            out.Sentiment,
		}
	} else {
		t.log.Warn("qualification extraction failed, keeping the answer verbatim", zap.Error(err))
	}

	t.sess.Qualification = q
	m.say(t, messages.AskNote)
	return t.sess.Advance(session.StageWaitingCandidateNote)
}

func (m *Machine) note(ctx context.Context, t *turn) error {
	if isDecline(t.text) {
		t.sess.NoteDeclined = true
		t.sess.CandidateNote = ""
	} else {
		t.sess.CandidateNote = t.text
	}

	if err := m.match(ctx, t); err != nil {
		return err
	}
	m.say(t, messages.AskDispatchConsent)
	return t.sess.Advance(session.StageWaitingDispatchConsent)
}

func (m *Machine) match(ctx context.Context, t *turn) error {
	list, err := m.deps.Jobs.Jobs(ctx, t.tenant.ID)
	if err != nil {
		t.log.Warn("job list unavailable, continuing without matches", zap.Error(err))
		list = nil
	}

	result, err := m.matcherFor(t.tenant).Match(ctx, t.sess.Profile, list)
	if err != nil {
		return err
	}

	t.sess.Matches = t.sess.Matches[:0]
	t.sess.MatchedJobIDs = t.sess.MatchedJobIDs[:0]
	for _, jm := range result.Matches {
		t.sess.Matches = append(t.sess.Matches, session.MatchRecord{
			JobID:  jm.Job.ID,
			Title:  jm.Job.Title,
			City:   jm.Job.City,
			Score:  jm.Score,
			Reason: jm.Reasoning,
		})
		t.sess.MatchedJobIDs = append(t.sess.MatchedJobIDs, jm.Job.ID)
	}

	if len(result.Matches) == 0 {
		m.say(t, messages.NoMatches)
		return nil
	}
	lines := []string{m.catalog.Text(t.tenant.Locale, messages.MatchesHeader)}
	for i, rec := range t.sess.Matches {
		city := ""
		if rec.City != "" {
			city = ", " + rec.City
		}
		lines = append(lines, m.catalog.Text(t.tenant.Locale, messages.MatchLine, i+1, rec.Title, city, rec.Score))
	}
	t.replies = append(t.replies, strings.Join(lines, "\n"))
	if result.Completeness != matching.Complete {
		m.say(t, messages.PartialCaveat)
	}
	return nil
}

func (m *Machine) dispatchConsent(ctx context.Context, t *turn) error {
	question := m.catalog.Text(t.tenant.Locale, messages.AskDispatchConsent)

	switch m.deps.Classifier.Classify(ctx, question, t.text) {
	case intent.Affirm:
		now := m.now()
		t.sess.Compliance.DispatchConsentTimestamp = &now
		summary, err := m.deps.Dispatcher.Dispatch(ctx, t.sess, t.tenant.Reviewer)
		if err != nil {
			t.log.Warn("dispatch failed, waiting for retry", zap.Error(err))
			m.say(t, messages.DispatchFailed)
			return nil
		}
		t.log.Info("profile dispatched", zap.String("dispatch_id", summary.ID.String()))
		m.say(t, messages.Dispatched)
		return t.sess.Advance(session.StageDispatched)
	case intent.Refuse:
		m.say(t, messages.DispatchRefused)
		t.deleted = true
		return t.sess.Advance(session.StageCompleted)
	default:
		m.say(t, messages.DispatchUnclear)
		return nil
	}
}

func (m *Machine) matcherFor(t tenant.Tenant) Matcher {
	if matcher, ok := m.deps.Matchers[t.MatchingMode]; ok {
		return matcher
	}
	if matcher, ok := m.deps.Matchers[tenant.MatchingRubric]; ok {
		return matcher
	}
	for _, matcher := range m.deps.Matchers {
		return matcher
	}
	return nil
}

func documentMessage(err error) messages.ID {
	switch {
	case errors.Is(err, document.ErrUnsupportedType):
		return messages.DocUnsupported
	case errors.Is(err, document.ErrOversize):
		return messages.DocOversize
	case errors.Is(err, document.ErrTimeout):
		return messages.DocTimeout
	case errors.Is(err, document.ErrExtractionEmpty):
		return messages.DocEmpty
	case errors.Is(err, document.ErrUnavailable):
		return messages.DocUnavailable
	default:
		return messages.DocTransport
	}
}

func isDecline(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, ".!¡ ")
	return text == "" || noteDeclines[text]
}
