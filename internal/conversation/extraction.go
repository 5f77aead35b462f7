package conversation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/logger"
	"github.com/spigell/talent-intake/internal/merge"
	"github.com/spigell/talent-intake/internal/messages"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
	"github.com/spigell/talent-intake/internal/tenant"
)

const profilePrompt = `You read a message from a job candidate and extract what it says about their profile.
Fill only what the message states; use null for everything else. Never guess.
- education: highest education reached
- experience_summary: roles held and total years of experience, in one or two sentences
- experiences: individual positions with company, role and years
- hard_skills: technical skills, tools, machinery, licences and certifications
- language_level: the candidate's level in the working language. Use A1..C2 when stated;
  otherwise copy the words they used (for example "fluent" or "basic")
- desired_title: the job they are looking for
Ignore age, family, health, religion and any other personal detail.`

// extractInBackground runs on the identity's lane after the turn that queued it.
func (m *Machine) extractInBackground(identity, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ExtractionTimeout)
	defer cancel()

	log := logger.WithFields(m.logger, logger.SessionFields(identity, "", string(session.StageCollectingData))...)
	defer func() {
		if r := recover(); r != nil {
			log.Error("background extraction panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	sess, err := m.deps.Store.Load(ctx, identity)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Warn("background extraction could not load session", zap.Error(err))
		}
		return
	}
	if sess.Stage != session.StageCollectingData {
		log.Debug("session moved on, dropping extraction", zap.String(logger.FieldStage, string(sess.Stage)))
		return
	}
	t := m.resolveTenant(sess.TenantID)

	var extracted schema.ExtractionResult
	err = m.deps.Extractor.ExtractInto(ctx, ai.UserText(ai.ModelFast, profilePrompt, text, schema.ProfileExtraction), &extracted)
	if err != nil {
		log.Warn("profile extraction failed", zap.Error(err))
	} else {
		merged := merge.Apply(sess, &extracted)
		switch {
		case merged.Err != nil:
			log.Warn("profile merge discarded", zap.Error(merged.Err))
		case merged.Changed():
			sess = merged.Session
			sess.Touch(m.now(), m.cfg.Retention)
			if err := m.deps.Store.Save(ctx, sess); err != nil {
				log.Error("saving merged profile failed", zap.Error(err))
				return
			}
			log.Info("profile merged", zap.Strings("adopted", merged.Adopted))
		}
	}

	var reply string
	if missing := sess.Profile.MissingRequired(); len(missing) > 0 {
		reply = m.catalog.Text(t.Locale, messages.AskMissing, m.fieldList(t, missing))
	} else {
		reply = m.catalog.Text(t.Locale, messages.ProfileSummary, m.profileSummary(t, sess.Profile))
	}
	m.send(ctx, log, identity, reply)
}

var fieldLabels = map[string]messages.ID{
	schema.FieldName:              messages.FieldName,
	schema.FieldEducation:         messages.FieldEducation,
	schema.FieldExperienceSummary: messages.FieldExperience,
	schema.FieldHardSkills:        messages.FieldSkills,
	schema.FieldLanguageLevel:     messages.FieldLanguage,
	schema.FieldDesiredTitle:      messages.FieldDesiredTitle,
}

func (m *Machine) fieldList(t tenant.Tenant, fields []string) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, strings.ToLower(m.catalog.Text(t.Locale, fieldLabels[f])))
	}
	return strings.Join(labels, ", ")
}

func (m *Machine) profileSummary(t tenant.Tenant, p session.Profile) string {
	line := func(id messages.ID, value string) string {
		if strings.TrimSpace(value) == "" {
			value = m.catalog.Text(t.Locale, messages.FieldValueNotGiven)
		}
		return m.catalog.Text(t.Locale, messages.SummaryLine, m.catalog.Text(t.Locale, id), value)
	}

	var lines []string
	if p.Name != "" {
		lines = append(lines, line(messages.FieldName, p.Name))
	}
	lines = append(lines,
		line(messages.FieldEducation, p.Education),
		line(messages.FieldExperience, p.ExperienceSummary),
		line(messages.FieldSkills, strings.Join(p.HardSkills, ", ")),
		line(messages.FieldLanguage, p.LanguageLevel),
	)
	if p.DesiredTitle != "" {
		lines = append(lines, line(messages.FieldDesiredTitle, p.DesiredTitle))
	}
	return strings.Join(lines, "\n")
}
