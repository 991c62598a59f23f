/*
Package session coordinates the background work tied to the current user.

The Manager is the single owner of session lifecycle: a login starts a Session
(reconciliation loop, notification scheduler for students, daily survey gate)
and a logout or a new login stops it. Events describing state changes are fanned
out through a Hub.
*/
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portalsync/internal/app/chat"
	"portalsync/internal/app/notify"
	"portalsync/internal/app/survey"
	"portalsync/internal/app/user"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
)

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("no active session")

// Config holds the timings of the session loops.
type Config struct {
	SyncInterval time.Duration
	Notify       notify.Config
}

// Manager owns the current Session.
type Manager struct {
	repo *user.Repository
	log  *chat.Log
	gate *survey.Gate
	cfg  Config
	hub  *Hub

	// ctx bounds every loop the Manager starts.
	ctx context.Context

	mu      sync.Mutex
	current *Session

	logger zerolog.Logger
}

// NewManager wires a Manager to repo and registers it as repo's listener.
// Loops started by the Manager end when ctx is done.
func NewManager(ctx context.Context, repo *user.Repository, log *chat.Log, gate *survey.Gate, cfg Config) *Manager {
	m := &Manager{
		repo:   repo,
		log:    log,
		gate:   gate,
		cfg:    cfg,
		hub:    NewHub(),
		ctx:    ctx,
		logger: logx.Component("session"),
	}

	repo.SetListener(m)

	return m
}

// Subscribe returns a stream of session events and its cancel function.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.hub.Subscribe()
}

// Login makes p the current user and starts their session.
func (m *Manager) Login(ctx context.Context, p user.Profile) error {
	return m.repo.SetCurrent(ctx, p)
}

// Logout ends the current session. The profile is kept.
func (m *Manager) Logout(ctx context.Context) error {
	return m.repo.ClearCurrent(ctx)
}

// Restore resumes the session persisted by a previous run, if any.
func (m *Manager) Restore(ctx context.Context) (user.Profile, bool) {
	return m.repo.Restore(ctx)
}

// Shutdown stops the running session without logging the user out, so the
// next start restores it.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s != nil {
		s.stop()
		metrics.ActiveSessions.Set(0)
	}
}

// SessionStarted implements user.Listener. Any running session is stopped
// before the new one starts so loops never overlap.
func (m *Manager) SessionStarted(p user.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.stop()
		m.current = nil
	}

	// Pick up writes made while nobody was polling.
	m.log.Reconcile(m.ctx)

	s := newSession(p.Name)
	s.reconciler = chat.NewReconciler(m.log, m.cfg.SyncInterval, m.onMessagesChanged)
	if p.IsStudent() {
		s.scheduler = notify.NewScheduler(m.cfg.Notify, m.notifyInputs, m.onNotification)
	}

	mustShow := m.gate.Evaluate(m.ctx, p)

	s.start(m.ctx)
	m.current = s
	metrics.ActiveSessions.Set(1)

	m.logger.Info().
		Str("user", p.Name).
		Str("role", string(p.Role)).
		Bool("survey_required", mustShow).
		Msg("Session started")

	m.hub.Publish(Event{Type: EventSessionStarted, Payload: p})
	m.hub.Publish(Event{Type: EventSurvey, Payload: SurveyPayload{MustShow: mustShow}})
	m.hub.Publish(Event{Type: EventUnread, Payload: UnreadPayload{Count: m.log.UnreadCountFor(p)}})
}

// SessionEnded implements user.Listener.
func (m *Manager) SessionEnded(p user.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.stop()
		m.current = nil
	}
	m.gate.Reset()
	metrics.ActiveSessions.Set(0)

	m.logger.Info().Str("user", p.Name).Msg("Session ended")

	m.hub.Publish(Event{Type: EventSessionEnded, Payload: p})
}

// session returns the running session and its user.
func (m *Manager) session() (*Session, user.Profile, error) {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	p, ok := m.repo.Current()
	if s == nil || !ok {
		return nil, user.Profile{}, ErrNoSession
	}
	return s, p, nil
}

// Current returns the logged-in profile.
func (m *Manager) Current() (user.Profile, error) {
	_, p, err := m.session()
	return p, err
}

// UpdateProfile applies u to the current profile.
func (m *Manager) UpdateProfile(ctx context.Context, u user.Update) (user.Profile, error) {
	p, err := m.repo.Update(ctx, u)
	if errors.Is(err, user.ErrNoCurrentUser) {
		return p, ErrNoSession
	}
	if err == nil {
		m.hub.Publish(Event{Type: EventProfile, Payload: p})
	}
	return p, err
}

// Send appends a message from the current user.
func (m *Manager) Send(ctx context.Context, to, text, subject string) (chat.Message, error) {
	_, p, err := m.session()
	if err != nil {
		return chat.Message{}, err
	}

	msg, err := m.log.Send(ctx, p.Name, to, text, subject)
	if err != nil {
		return msg, err
	}

	m.hub.Publish(Event{Type: EventMessages, Payload: msg})
	return msg, nil
}

// Messages returns the current user's view of the log: everything they sent or
// can read.
func (m *Manager) Messages() ([]chat.Message, error) {
	_, p, err := m.session()
	if err != nil {
		return nil, err
	}

	inbox := chat.InboxOf(p)
	return m.log.Filter(func(msg chat.Message) bool {
		return msg.From == p.Name || inbox(msg)
	}), nil
}

// MarkRead marks the current user's inbox as read, limited to messages from
// peer when peer is not empty.
func (m *Manager) MarkRead(ctx context.Context, peer string) (int, error) {
	_, p, err := m.session()
	if err != nil {
		return 0, err
	}

	pred := chat.InboxOf(p)
	if peer != "" {
		pred = chat.Conversation(p, peer)
	}

	n, err := m.log.MarkRead(ctx, pred)
	if n > 0 {
		m.hub.Publish(Event{Type: EventUnread, Payload: UnreadPayload{Count: m.log.UnreadCountFor(p)}})
	}
	return n, err
}

// UnreadCount returns the current user's unread total.
func (m *Manager) UnreadCount() (int, error) {
	_, p, err := m.session()
	if err != nil {
		return 0, err
	}
	return m.log.UnreadCountFor(p), nil
}

// SurveyRequired reports whether the daily survey gate is armed.
func (m *Manager) SurveyRequired() (bool, error) {
	if _, _, err := m.session(); err != nil {
		return false, err
	}
	return m.gate.MustShow(), nil
}

// CompleteSurvey records the survey answer and releases the gate.
func (m *Manager) CompleteSurvey(ctx context.Context, emotion string) error {
	if _, _, err := m.session(); err != nil {
		return err
	}
	if err := m.gate.Complete(ctx, emotion); err != nil {
		return err
	}

	m.hub.Publish(Event{Type: EventSurvey, Payload: SurveyPayload{MustShow: false}})
	return nil
}

// Notification returns the visible notification of a student session.
func (m *Manager) Notification() (notify.Notification, bool, error) {
	s, _, err := m.session()
	if err != nil {
		return notify.Notification{}, false, err
	}
	if s.scheduler == nil {
		return notify.Notification{}, false, nil
	}

	n, ok := s.scheduler.Active()
	return n, ok, nil
}

// DismissNotification hides the visible notification.
func (m *Manager) DismissNotification() (bool, error) {
	s, _, err := m.session()
	if err != nil {
		return false, err
	}
	if s.scheduler == nil {
		return false, nil
	}
	return s.scheduler.Dismiss(), nil
}

// ClickNotification hides the visible notification and returns its route.
func (m *Manager) ClickNotification() (notify.Route, bool, error) {
	s, _, err := m.session()
	if err != nil {
		return "", false, err
	}
	if s.scheduler == nil {
		return "", false, nil
	}

	route, ok := s.scheduler.Click()
	return route, ok, nil
}

// onMessagesChanged runs on the reconciler goroutine after memory was replaced.
func (m *Manager) onMessagesChanged() {
	p, ok := m.repo.Current()
	if !ok {
		return
	}

	m.hub.Publish(Event{Type: EventMessages})
	m.hub.Publish(Event{Type: EventUnread, Payload: UnreadPayload{Count: m.log.UnreadCountFor(p)}})
}

func (m *Manager) notifyInputs() (int, user.Profile, bool) {
	p, ok := m.repo.Current()
	if !ok {
		return 0, user.Profile{}, false
	}
	return m.log.UnreadCountFor(p), p, true
}

func (m *Manager) onNotification(n *notify.Notification) {
	m.hub.Publish(Event{Type: EventNotification, Payload: n})
}
