package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"portalsync/internal/app/chat"
	"portalsync/internal/app/notify"
	"portalsync/internal/pkg/logx"
)

// Session is the set of loops running for one logged-in user. It is started
// once and stopped once.
type Session struct {
	User string

	reconciler *chat.Reconciler
	// scheduler is nil for teachers.
	scheduler *notify.Scheduler

	cancel   context.CancelFunc
	stopOnce sync.Once

	logger zerolog.Logger
}

func newSession(name string) *Session {
	return &Session{
		User:   name,
		logger: logx.Component("session").With().Str("user", name).Logger(),
	}
}

func (s *Session) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.reconciler.Start(ctx)
	if s.scheduler != nil {
		s.scheduler.Start(ctx)
	}

	s.logger.Debug().Bool("notifications", s.scheduler != nil).Msg("Session loops started")
}

// stop cancels every loop and waits for them. Later calls do nothing.
func (s *Session) stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}

		s.reconciler.Stop()
		if s.scheduler != nil {
			s.scheduler.Stop()
		}

		s.logger.Debug().Msg("Session loops stopped")
	})
}
