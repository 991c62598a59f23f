package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portalsync/internal/app/user"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
)

const (
	// DefaultInterval is the period between two notifications.
	DefaultInterval = 45 * time.Second

	// DefaultDismissAfter is how long a notification stays visible.
	DefaultDismissAfter = 8 * time.Second
)

// Config holds the scheduler timings. Zero values fall back to the defaults.
type Config struct {
	Interval     time.Duration
	DismissAfter time.Duration
}

// Inputs returns the current unread count and profile. ok is false when there
// is no user to notify.
type Inputs func() (unread int, p user.Profile, ok bool)

// Publisher receives every change of the visible notification; nil means cleared.
// It is called with the Scheduler's lock held and must not call back into it.
type Publisher func(active *Notification)

// Scheduler emits at most one visible notification at a time.
type Scheduler struct {
	cfg     Config
	inputs  Inputs
	publish Publisher

	mu      sync.Mutex
	active  *Notification
	dismiss *time.Timer
	// gen is bumped whenever the visible notification changes so a late
	// dismiss timer can tell it is stale.
	gen uint64

	cancel context.CancelFunc
	done   chan struct{}

	logger zerolog.Logger
}

// NewScheduler returns a stopped Scheduler. publish may be nil.
func NewScheduler(cfg Config, inputs Inputs, publish Publisher) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.DismissAfter <= 0 {
		cfg.DismissAfter = DefaultDismissAfter
	}
	if publish == nil {
		publish = func(*Notification) {}
	}

	return &Scheduler{
		cfg:     cfg,
		inputs:  inputs,
		publish: publish,
		logger:  logx.Component("notifier"),
	}
}

// Start launches the ticking loop. A second Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(loopCtx, done)

	s.logger.Debug().Dur("interval", s.cfg.Interval).Msg("Notification scheduler started")
}

// Stop ends the loop, waits for it and clears any visible notification.
// Stopping a stopped Scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	s.logger.Debug().Msg("Notification scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick selects and shows a notification. Non-students never get one.
func (s *Scheduler) tick() bool {
	unread, p, ok := s.inputs()
	if !ok || !p.IsStudent() {
		return false
	}

	s.show(Select(unread, p))
	return true
}

func (s *Scheduler) show(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.gen++
	gen := s.gen

	s.active = &n
	s.dismiss = time.AfterFunc(s.cfg.DismissAfter, func() { s.expire(gen) })

	metrics.NotificationsShown.WithLabelValues(string(n.Kind)).Inc()
	s.logger.Debug().Str("kind", string(n.Kind)).Int("count", n.Count).Msg("Notification shown")

	shown := n
	s.publish(&shown)
}

func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	s.clearLocked()
}

// Active returns the visible notification.
func (s *Scheduler) Active() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Notification{}, false
	}
	return *s.active, true
}

// Dismiss hides the visible notification early. It reports whether one was visible.
func (s *Scheduler) Dismiss() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

// Click hides the visible notification and returns the route it leads to.
func (s *Scheduler) Click() (Route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return "", false
	}

	route := s.active.Route()
	s.clearLocked()

	return route, true
}

func (s *Scheduler) stopTimerLocked() {
	if s.dismiss != nil {
		s.dismiss.Stop()
		s.dismiss = nil
	}
}

func (s *Scheduler) clearLocked() bool {
	s.stopTimerLocked()
	if s.active == nil {
		return false
	}

	s.gen++
	s.active = nil
	s.publish(nil)

	return true
}
