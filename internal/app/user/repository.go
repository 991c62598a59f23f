package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"portalsync/internal/app/store"
	"portalsync/internal/pkg/logx"
)

// Persisted keys owned by the Repository.
const (
	KeyCurrentUser = "josias_current_user"
	KeyUsers       = "josias_users"
)

var (
	// ErrNoCurrentUser is returned by operations that need a logged-in user.
	ErrNoCurrentUser = errors.New("no current user")

	// ErrInvalidProfile is returned for a profile without a name or with an unknown role.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Listener is told when the current user is set, renamed or cleared. Calls
// happen after the Repository has released its state lock, one at a time and
// in the order the changes were made, so the last call always describes the
// current user.
type Listener interface {
	SessionStarted(p Profile)
	SessionEnded(p Profile)
}

// Repository owns the profile collection and the current-user pointer.
//
// Saving merges the whole current profile into the collection, replacing every
// case-insensitive name match. Two processes saving the same user concurrently
// therefore resolve to whichever wrote last, field changes included.
type Repository struct {
	store store.Store

	// notifyMu is held by every mutation from its state change until its
	// listener call returns. It is always taken before mu.
	notifyMu sync.Mutex

	// mu serializes mutations together with their writes.
	mu      sync.Mutex
	current *Profile

	listener Listener

	logger zerolog.Logger
}

// NewRepository returns a Repository over s with no current user.
func NewRepository(s store.Store) *Repository {
	return &Repository{
		store:  s,
		logger: logx.Component("profiles"),
	}
}

// SetListener registers l for session start/end callbacks. Pass nil to detach.
func (r *Repository) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listener = l
}

func validate(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidProfile, p.Role)
	}
	return nil
}

// All returns the stored collection. A missing or malformed collection is empty.
func (r *Repository) All(ctx context.Context) []Profile {
	var profiles []Profile
	if !store.GetJSON(ctx, r.store, KeyUsers, &profiles) {
		return []Profile{}
	}
	return profiles
}

// Load finds a stored profile by case-insensitive name.
func (r *Repository) Load(ctx context.Context, name string) (Profile, bool) {
	for _, p := range r.All(ctx) {
		if SameIdentity(p.Name, name) {
			return p.WithDefaults(), true
		}
	}
	return Profile{}, false
}

// Current returns a copy of the current profile.
func (r *Repository) Current() (Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return Profile{}, false
	}
	return r.current.Clone(), true
}

// SetCurrent makes p the current user, persists the pointer and merges p into the
// collection, then notifies the listener. A persistence error is returned but
// the in-memory switch and the notification still happen.
func (r *Repository) SetCurrent(ctx context.Context, p Profile) error {
	if err := validate(p); err != nil {
		return err
	}

	p = p.WithDefaults().Clone()

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	r.current = &p
	err := r.persistLocked(ctx, p)
	listener := r.listener
	r.mu.Unlock()

	r.logger.Info().Str("user", p.Name).Str("role", string(p.Role)).Msg("Current user set")

	if listener != nil {
		listener.SessionStarted(p.Clone())
	}

	return err
}

// Update merges u into the current profile. Fields u leaves nil keep their value.
// A rename to a different identity restarts the session under the new name.
func (r *Repository) Update(ctx context.Context, u Update) (Profile, error) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return Profile{}, ErrNoCurrentUser
	}

	prev := *r.current
	next := u.Apply(prev).WithDefaults()
	if err := validate(next); err != nil {
		r.mu.Unlock()
		return prev.Clone(), err
	}

	r.current = &next
	err := r.persistLocked(ctx, next)
	listener := r.listener
	r.mu.Unlock()

	if !SameIdentity(prev.Name, next.Name) {
		r.logger.Info().Str("from", prev.Name).Str("to", next.Name).Msg("Current user renamed")

		if listener != nil {
			listener.SessionStarted(next.Clone())
		}
	}

	return next.Clone(), err
}

// ClearCurrent ends the session: the pointer is cleared in memory and removed
// from the store. The profile stays in the collection.
func (r *Repository) ClearCurrent(ctx context.Context) error {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	prev := r.current
	r.current = nil
	listener := r.listener

	var err error
	if prev != nil {
		if rmErr := r.store.Remove(ctx, KeyCurrentUser); rmErr != nil {
			err = fmt.Errorf("failed to clear current user: %w", rmErr)
		}
	}
	r.mu.Unlock()

	if prev == nil {
		return nil
	}

	r.logger.Info().Str("user", prev.Name).Msg("Current user cleared")

	if listener != nil {
		listener.SessionEnded(prev.Clone())
	}

	return err
}

// Restore hydrates the current user from the persisted pointer, as happens when
// the portal starts with a user still signed in.
func (r *Repository) Restore(ctx context.Context) (Profile, bool) {
	var p Profile
	if !store.GetJSON(ctx, r.store, KeyCurrentUser, &p) {
		return Profile{}, false
	}
	if err := validate(p); err != nil {
		r.logger.Warn().Err(err).Msg("Ignoring stored current user")
		return Profile{}, false
	}

	if err := r.SetCurrent(ctx, p); err != nil {
		r.logger.Error().Err(err).Str("user", p.Name).Msg("Failed to persist restored user")
	}

	return r.Current()
}

// persistLocked writes the pointer and merges p into the collection. r.mu must be held.
func (r *Repository) persistLocked(ctx context.Context, p Profile) error {
	if err := store.SetJSON(ctx, r.store, KeyCurrentUser, p); err != nil {
		return err
	}
	return r.mergeLocked(ctx, p)
}

// mergeLocked replaces every entry matching p's name with p, appending p when no
// entry matches. Non-matching entries are written back untouched.
func (r *Repository) mergeLocked(ctx context.Context, p Profile) error {
	profiles := r.All(ctx)

	matched := false
	for i := range profiles {
		if SameIdentity(profiles[i].Name, p.Name) {
			profiles[i] = p.Clone()
			matched = true
		}
	}

	if !matched {
		r.logger.Debug().Str("user", p.Name).Msg("No stored profile matched, appending")
		profiles = append(profiles, p.Clone())
	}

	return store.SetJSON(ctx, r.store, KeyUsers, profiles)
}
