// Package conversation drives a candidate through the intake stages.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/channel"
	"github.com/spigell/talent-intake/internal/dispatch"
	"github.com/spigell/talent-intake/internal/document"
	"github.com/spigell/talent-intake/internal/intent"
	"github.com/spigell/talent-intake/internal/jobs"
	"github.com/spigell/talent-intake/internal/logger"
	"github.com/spigell/talent-intake/internal/matching"
	"github.com/spigell/talent-intake/internal/messages"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/session"
	"github.com/spigell/talent-intake/internal/tenant"
)

const (
	DefaultResetKeyword      = "/reset"
	DefaultTurnTimeout       = 2 * time.Minute
	DefaultExtractionTimeout = time.Minute
)

// Extractor decodes validated answers of the inference service.
type Extractor interface {
	ExtractInto(ctx context.Context, req ai.Request, out any) error
}

// DocumentProcessor turns an uploaded document into a partial profile.
type DocumentProcessor interface {
	Process(ctx context.Context, media document.Media) (*schema.ExtractionResult, error)
}

// Matcher scores a profile against a job list.
type Matcher interface {
	Match(ctx context.Context, profile session.Profile, list []jobs.Job) (*matching.Result, error)
}

// Dispatcher forwards a finished profile to a reviewer.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *session.Session, reviewer dispatch.Reviewer) (dispatch.Summary, error)
}

// Deps are the collaborators of a Machine.
type Deps struct {
	Store      session.Store
	Messenger  channel.Messenger
	Classifier intent.Classifier
	Extractor  Extractor
	Documents  DocumentProcessor
	Jobs       jobs.Source
	// Matchers are keyed by tenant matching mode.
	Matchers   map[string]Matcher
	Dispatcher Dispatcher
	Tenants    *tenant.Registry
	Logger     *zap.Logger
}

// Config tunes a Machine.
type Config struct {
	ResetKeyword      string
	Retention         time.Duration
	TurnTimeout       time.Duration
	ExtractionTimeout time.Duration
	// MaxDocumentBytes is only used to word the oversize message.
	MaxDocumentBytes int64
}

// Machine is the conversation orchestrator. Events for one identity are
// processed one at a time, together with the background extraction they
// trigger; different identities proceed in parallel.
type Machine struct {
	deps    Deps
	cfg     Config
	catalog messages.Catalog
	queue   *Queue
	logger  *zap.Logger
	now     func() time.Time
}

// New validates deps and returns a machine.
func New(deps Deps, cfg Config) (*Machine, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("conversation: session store is required")
	case deps.Messenger == nil:
		return nil, errors.New("conversation: messenger is required")
	case deps.Extractor == nil:
		return nil, errors.New("conversation: extractor is required")
	case deps.Documents == nil:
		return nil, errors.New("conversation: document pipeline is required")
	case deps.Jobs == nil:
		return nil, errors.New("conversation: job source is required")
	case len(deps.Matchers) == 0:
		return nil, errors.New("conversation: at least one matcher is required")
	case deps.Dispatcher == nil:
		return nil, errors.New("conversation: dispatcher is required")
	}

	if deps.Classifier == nil {
		deps.Classifier = intent.NewModelClassifier(deps.Extractor, deps.Logger)
	}
	if deps.Tenants == nil {
		list, _ := tenant.NormalizeAndValidate(nil, nil)
		deps.Tenants = tenant.NewRegistry(list)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.ResetKeyword == "" {
		cfg.ResetKeyword = DefaultResetKeyword
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = DefaultExtractionTimeout
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = document.DefaultMaxBytes
	}

	return &Machine{
		deps:   deps,
		cfg:    cfg,
		queue:  NewQueue(),
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

// Submit queues ev and returns a channel closed once its turn has replied.
func (m *Machine) Submit(ev channel.Event) <-chan struct{} {
	done := make(chan struct{})
	m.queue.Enqueue(ev.Identity, func() {
		defer close(done)
		m.runTurn(ev)
	})
	return done
}

// HandleEvent processes ev and waits for its turn to finish. Background
// extraction started by the turn may still be running when it returns.
func (m *Machine) HandleEvent(ctx context.Context, ev channel.Event) error {
	select {
	case <-m.Submit(ev):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until all queued turns and background work are done.
func (m *Machine) Wait() {
	m.queue.Wait()
}

// turn is the working state of one event. Nothing is persisted or sent until
// the handler returns without error.
type turn struct {
	ev      channel.Event
	text    string
	tenant  tenant.Tenant
	sess    *session.Session
	replies []string
	deleted bool
	after   []func()
	log     *zap.Logger
}

func (m *Machine) say(t *turn, id messages.ID, args ...any) {
	t.replies = append(t.replies, m.catalog.Text(t.tenant.Locale, id, args...))
}

func (m *Machine) runTurn(ev channel.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.TurnTimeout)
	defer cancel()

	t := &turn{ev: ev, text: strings.TrimSpace(ev.Text)}
	t.tenant = m.resolveTenant(ev.TenantID)
	t.log = logger.WithFields(m.logger, logger.SessionFields(ev.Identity, t.tenant.ID, "")...)

	defer func() {
		if r := recover(); r != nil {
			t.log.Error("turn panicked", zap.Any("panic", r), zap.Stack("stack"))
			m.send(ctx, t.log, ev.Identity, m.catalog.Text(t.tenant.Locale, messages.GenericFailure))
		}
	}()

	if err := m.handle(ctx, t); err != nil {
		t.log.Error("turn failed", zap.Error(err))
		m.send(ctx, t.log, ev.Identity, m.catalog.Text(t.tenant.Locale, messages.GenericFailure))
		return
	}

	for _, reply := range t.replies {
		m.send(ctx, t.log, ev.Identity, reply)
	}
	for _, task := range t.after {
		m.queue.Enqueue(ev.Identity, task)
	}
}

func (m *Machine) handle(ctx context.Context, t *turn) error {
	sess, err := m.deps.Store.Load(ctx, t.ev.Identity)
	switch {
	case errors.Is(err, session.ErrNotFound):
		sess = nil
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	if sess != nil && strings.EqualFold(t.text, m.cfg.ResetKeyword) {
		if err := m.deps.Store.Delete(ctx, sess.Identity); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
		t.log.Info("session reset")
		sess = nil
	}

	if sess == nil {
		return m.start(ctx, t)
	}

	t.sess = sess
	t.tenant = m.resolveTenant(sess.TenantID)
	t.log = logger.WithFields(m.logger, logger.SessionFields(sess.Identity, t.tenant.ID, string(sess.Stage))...)
	if t.text != "" {
		sess.LastMessage = t.text
	}

	from := sess.Stage
	if err := m.step(ctx, t); err != nil {
		return err
	}

	if t.deleted {
		if err := m.deps.Store.Delete(ctx, sess.Identity); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		t.log.Info("session deleted", zap.String("to", string(sess.Stage)))
		return nil
	}

	sess.Touch(m.now(), m.cfg.Retention)
	if err := m.deps.Store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if from != sess.Stage {
		t.log.Info("stage advanced", zap.String("from", string(from)), zap.String("to", string(sess.Stage)))
	}
	return nil
}

// start creates the session and sends the disclosure. Nothing is extracted on first contact.
func (m *Machine) start(ctx context.Context, t *turn) error {
	sess := session.New(t.ev.Identity, t.tenant.ID, m.now())
	if err := sess.Advance(session.StagePendingConsent); err != nil {
		return err
	}
	sess.Touch(m.now(), m.cfg.Retention)
	if err := m.deps.Store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.say(t, messages.Disclosure)
	t.log.Info("session created")
	return nil
}

func (m *Machine) step(ctx context.Context, t *turn) error {
	if session.IsTerminal(t.sess.Stage) {
		m.say(t, messages.Closing)
		return t.sess.Advance(session.StageCompleted)
	}

	switch t.sess.Stage {
	case session.StageNew:
		m.say(t, messages.Disclosure)
		return t.sess.Advance(session.StagePendingConsent)
	case session.StagePendingConsent:
		return m.consent(ctx, t)
	case session.StageCollectingData:
		return m.collect(ctx, t)
	case session.StageWaitingQualification:
		return m.qualify(ctx, t)
	case session.StageWaitingCandidateNote:
		return m.note(ctx, t)
	case session.StageWaitingDispatchConsent:
		return m.dispatchConsent(ctx, t)
	default:
		return fmt.Errorf("unknown stage %q", t.sess.Stage)
	}
}

func (m *Machine) resolveTenant(id string) tenant.Tenant {
	if t, ok := m.deps.Tenants.Get(id); ok {
		return t
	}
	m.logger.Warn("unknown tenant, using default", zap.String(logger.FieldTenant, id))
	t, _ := m.deps.Tenants.Get("")
	if t.ID == "" {
		t = tenant.Tenant{ID: tenant.DefaultID, Locale: messages.DefaultLocale, MatchingMode: tenant.MatchingRubric}
	}
	return t
}

func (m *Machine) send(ctx context.Context, log *zap.Logger, identity, text string) {
	if err := m.deps.Messenger.Send(ctx, identity, text); err != nil {
		log.Warn("reply not delivered", zap.Error(err))
	}
}
