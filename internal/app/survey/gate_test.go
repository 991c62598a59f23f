package survey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalsync/internal/app/store"
	"portalsync/internal/app/user"
)

var (
	ana = user.Profile{Name: "Ana", Role: user.RoleStudent}
	t1  = user.Profile{Name: "T1", Role: user.RoleTeacher}
)

func gateAt(s store.Store, day *time.Time) *Gate {
	g := NewGate(s)
	g.now = func() time.Time { return *day }
	return g
}

func TestDateLayout(t *testing.T) {
	day := time.Date(2026, time.October, 1, 15, 4, 0, 0, time.Local)
	assert.Equal(t, "Thu Oct 01 2026", day.Format(DateLayout))
}

func TestGateDayAndNextDay(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	day := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.Local)
	g := gateAt(s, &day)

	assert.True(t, g.Evaluate(ctx, ana), "no marker arms the gate")
	assert.True(t, g.MustShow())

	require.NoError(t, g.Complete(ctx, "feliz"))
	assert.False(t, g.MustShow())

	raw, ok, err := s.Get(ctx, MarkerKey("Ana"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fri Oct 16 2026", string(raw))

	day = day.Add(10 * time.Hour)
	assert.False(t, g.Evaluate(ctx, ana), "same day stays released")

	day = time.Date(2026, time.October, 17, 0, 0, 1, 0, time.Local)
	assert.True(t, g.Evaluate(ctx, ana), "next day re-arms")
}

func TestGateComparesExactString(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.Set(ctx, MarkerKey("Ana"), []byte("2026-10-16")))

	day := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.Local)
	assert.True(t, gateAt(s, &day).Evaluate(ctx, ana))
}

func TestTeachersAreNeverGated(t *testing.T) {
	day := time.Now()
	g := gateAt(store.NewMemory(), &day)

	assert.False(t, g.Evaluate(context.Background(), t1))
	assert.False(t, g.MustShow())
	assert.ErrorIs(t, g.Complete(context.Background(), "feliz"), ErrNotRequired)
}

func TestCompleteWithoutEvaluation(t *testing.T) {
	g := NewGate(store.NewMemory())
	assert.ErrorIs(t, g.Complete(context.Background(), "feliz"), ErrNoUser)
}

func TestMarkerIsPerUser(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	day := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.Local)
	g := gateAt(s, &day)

	g.Evaluate(ctx, ana)
	require.NoError(t, g.Complete(ctx, "feliz"))

	luis := user.Profile{Name: "Luis", Role: user.RoleStudent}
	assert.True(t, g.Evaluate(ctx, luis))

	g.Reset()
	assert.False(t, g.MustShow())
}
