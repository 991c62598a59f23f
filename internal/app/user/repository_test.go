package user

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalsync/internal/app/store"
)

type recordingListener struct {
	mu      sync.Mutex
	started []string
	ended   []string
}

func (l *recordingListener) SessionStarted(p Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, p.Name)
}

func (l *recordingListener) SessionEnded(p Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended = append(l.ended, p.Name)
}

func ptr[T any](v T) *T { return &v }

func student(name string) Profile {
	return Profile{Name: name, Avatar: "🦅", Course: "3A", Role: RoleStudent}
}

func TestLoadIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, store.SetJSON(ctx, s, KeyUsers, []Profile{student("Ana")}))

	repo := NewRepository(s)

	for _, name := range []string{"Ana", "ana", "ANA"} {
		p, ok := repo.Load(ctx, name)
		require.True(t, ok, name)
		assert.Equal(t, "Ana", p.Name)
	}

	_, ok := repo.Load(ctx, "Bruno")
	assert.False(t, ok)
}

func TestLoadAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Set(ctx, KeyUsers, []byte(`[{"name":"Ana","role":"student","dailyProgress":140}]`)))

	p, ok := NewRepository(s).Load(ctx, "ana")
	require.True(t, ok)

	assert.Equal(t, 0, p.TotalStars)
	assert.Equal(t, []string{}, p.Badges)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 100, p.DailyProgress)
}

func TestLoadMalformedCollectionIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Set(ctx, KeyUsers, []byte(`{not json`)))

	repo := NewRepository(s)
	_, ok := repo.Load(ctx, "Ana")
	assert.False(t, ok)
	assert.Empty(t, repo.All(ctx))
}

func TestSetCurrentPersistsPointerAndAppends(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	repo := NewRepository(s)

	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))

	var pointer Profile
	require.True(t, store.GetJSON(ctx, s, KeyCurrentUser, &pointer))
	assert.Equal(t, "Ana", pointer.Name)
	assert.Equal(t, 1, pointer.Streak)

	all := repo.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Ana", all[0].Name)
}

func TestSetCurrentRejectsInvalidProfile(t *testing.T) {
	repo := NewRepository(store.NewMemory())

	err := repo.SetCurrent(context.Background(), Profile{Name: "  ", Role: RoleStudent})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	err = repo.SetCurrent(context.Background(), Profile{Name: "Ana", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, ok := repo.Current()
	assert.False(t, ok)
}

func TestUpdateMergesIntoCollection(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	bruno := student("Bruno")
	bruno.TotalStars = 7
	require.NoError(t, store.SetJSON(ctx, s, KeyUsers, []Profile{student("ana"), bruno}))

	repo := NewRepository(s)
	stored, ok := repo.Load(ctx, "Ana")
	require.True(t, ok)
	require.NoError(t, repo.SetCurrent(ctx, stored))

	updated, err := repo.Update(ctx, Update{
		TotalStars:    ptr(12),
		DailyProgress: ptr(60),
		Badges:        ptr([]string{"first-step"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TotalStars)
	assert.Equal(t, "3A", updated.Course, "unset fields keep their value")

	all := repo.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, updated, all[0].WithDefaults(), "match replaced with the whole in-memory profile")
	assert.Equal(t, 7, all[1].TotalStars, "other profiles untouched")
}

func TestUpdateReplacesEveryCaseInsensitiveMatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, store.SetJSON(ctx, s, KeyUsers, []Profile{student("ANA"), student("Bruno"), student("ana")}))

	repo := NewRepository(s)
	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))
	_, err := repo.Update(ctx, Update{Streak: ptr(4)})
	require.NoError(t, err)

	all := repo.All(ctx)
	require.Len(t, all, 3)
	assert.Equal(t, 4, all[0].Streak)
	assert.Equal(t, "Bruno", all[1].Name)
	assert.Equal(t, 4, all[2].Streak)
}

func TestUpdateRenameAppendsNewEntry(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())
	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))

	_, err := repo.Update(ctx, Update{Name: ptr("Ana Maria")})
	require.NoError(t, err)

	all := repo.All(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Name)
	assert.Equal(t, "Ana Maria", all[1].Name)
}

func TestUpdateRenameRestartsSession(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())
	l := &recordingListener{}
	repo.SetListener(l)
	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))

	_, err := repo.Update(ctx, Update{Name: ptr("ANA")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, l.started, "same identity keeps the session")

	_, err = repo.Update(ctx, Update{Name: ptr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Ana Maria"}, l.started)
	assert.Empty(t, l.ended)
}

// blockingListener holds the first SessionStarted call until release is closed.
type blockingListener struct {
	recordingListener
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (l *blockingListener) SessionStarted(p Profile) {
	l.once.Do(func() {
		close(l.entered)
		<-l.release
	})
	l.recordingListener.SessionStarted(p)
}

func TestListenerCallsFollowChangeOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())
	l := &blockingListener{entered: make(chan struct{}), release: make(chan struct{})}
	repo.SetListener(l)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, repo.SetCurrent(ctx, student("Ana")))
	}()
	<-l.entered

	var brunoDone atomic.Bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, repo.SetCurrent(ctx, student("Bruno")))
		brunoDone.Store(true)
	}()

	assert.Never(t, brunoDone.Load, 50*time.Millisecond, 5*time.Millisecond,
		"a second login waits for the first notification")

	close(l.release)
	wg.Wait()

	current, ok := repo.Current()
	require.True(t, ok)
	assert.Equal(t, "Bruno", current.Name)
	assert.Equal(t, []string{"Ana", "Bruno"}, l.started)
}

func TestUpdateWithoutSession(t *testing.T) {
	_, err := NewRepository(store.NewMemory()).Update(context.Background(), Update{Streak: ptr(2)})
	assert.ErrorIs(t, err, ErrNoCurrentUser)
}

func TestUpdateKeepsStateOnInvalidName(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())
	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))

	p, err := repo.Update(ctx, Update{Name: ptr("")})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.Equal(t, "Ana", p.Name)
}

func TestClearCurrentKeepsCollection(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	repo := NewRepository(s)
	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))

	require.NoError(t, repo.ClearCurrent(ctx))

	_, ok := repo.Current()
	assert.False(t, ok)

	_, ok, err := s.Get(ctx, KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok, "pointer removed")

	_, ok = repo.Load(ctx, "Ana")
	assert.True(t, ok, "profile survives logout")

	require.NoError(t, repo.ClearCurrent(ctx), "clearing twice is a no-op")
}

func TestListenerNotifications(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())
	l := &recordingListener{}
	repo.SetListener(l)

	require.NoError(t, repo.SetCurrent(ctx, student("Ana")))
	_, err := repo.Update(ctx, Update{Streak: ptr(3)})
	require.NoError(t, err)
	require.NoError(t, repo.ClearCurrent(ctx))
	require.NoError(t, repo.ClearCurrent(ctx))

	assert.Equal(t, []string{"Ana"}, l.started, "updates do not restart the session")
	assert.Equal(t, []string{"Ana"}, l.ended)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Set(ctx, KeyCurrentUser, []byte(`{"name":"Ana","role":"student","streak":0}`)))

	repo := NewRepository(s)
	l := &recordingListener{}
	repo.SetListener(l)

	p, ok := repo.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, []string{"Ana"}, l.started)

	_, ok = repo.Load(ctx, "ana")
	assert.True(t, ok, "restored user is merged into the collection")
}

func TestRestoreIgnoresBadPointer(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	repo := NewRepository(s)

	_, ok := repo.Restore(ctx)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyCurrentUser, []byte(`"Ana"`)))
	_, ok = repo.Restore(ctx)
	assert.False(t, ok)
}
