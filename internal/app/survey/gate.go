/*
Package survey decides when a student must answer the daily mood survey.

The marker for a user is the date string of their last completed survey. The
gate is armed whenever that marker differs from today's date string, so it
re-arms on its own once the calendar day changes.
*/
package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portalsync/internal/app/store"
	"portalsync/internal/app/user"
	"portalsync/internal/pkg/logx"
)

// DateLayout renders a day the way the marker is stored, e.g. "Fri Oct 16 2026".
const DateLayout = "Mon Jan 02 2006"

var (
	// ErrNoUser is returned by Complete before any student was evaluated.
	ErrNoUser = errors.New("no user evaluated")

	// ErrNotRequired is returned by Complete when the gate is not armed.
	ErrNotRequired = errors.New("survey not required")
)

// MarkerKey is the persisted key holding name's last survey day.
func MarkerKey(name string) string {
	return "survey_" + name
}

// Gate holds the survey requirement for the current user.
type Gate struct {
	store store.Store
	now   func() time.Time

	mu    sync.Mutex
	user  string
	armed bool

	logger zerolog.Logger
}

// NewGate returns a released Gate reading local time.
func NewGate(s store.Store) *Gate {
	return &Gate{
		store:  s,
		now:    time.Now,
		logger: logx.Component("survey"),
	}
}

func (g *Gate) today() string {
	return g.now().Format(DateLayout)
}

// Evaluate arms the gate when p is a student whose marker is not today's date,
// an absent marker included. Teachers are never gated.
func (g *Gate) Evaluate(ctx context.Context, p user.Profile) bool {
	armed := false
	if p.IsStudent() {
		last, ok, err := g.store.Get(ctx, MarkerKey(p.Name))
		if err != nil {
			g.logger.Warn().Err(err).Str("user", p.Name).Msg("Failed to read survey marker, treating as absent")
		}
		armed = !ok || string(last) != g.today()
	}

	g.mu.Lock()
	g.user = p.Name
	g.armed = armed
	g.mu.Unlock()

	g.logger.Debug().Str("user", p.Name).Bool("armed", armed).Msg("Survey gate evaluated")

	return armed
}

// MustShow reports whether the survey must be answered before anything else.
func (g *Gate) MustShow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.armed
}

// Complete records today's date as the evaluated user's marker and releases
// the gate.
func (g *Gate) Complete(ctx context.Context, emotion string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.user == "" {
		return ErrNoUser
	}
	if !g.armed {
		return ErrNotRequired
	}

	today := g.today()
	if err := g.store.Set(ctx, MarkerKey(g.user), []byte(today)); err != nil {
		return fmt.Errorf("failed to write survey marker: %w", err)
	}
	g.armed = false

	g.logger.Info().
		Str("user", g.user).
		Str("emotion", strings.TrimSpace(emotion)).
		Str("day", today).
		Msg("Daily survey completed")

	return nil
}

// Reset forgets the evaluated user, as when the session ends.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.user = ""
	g.armed = false
}
