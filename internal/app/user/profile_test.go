package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameIdentity(t *testing.T) {
	assert.True(t, SameIdentity("Ana", "ana"))
	assert.True(t, SameIdentity("PROFE Luis", "profe luis"))
	assert.False(t, SameIdentity("Ana", "Ana "))
}

func TestWithDefaults(t *testing.T) {
	p := Profile{Name: "Ana", TotalStars: -3, Streak: -1, DailyProgress: -5}.WithDefaults()

	assert.Equal(t, 0, p.TotalStars)
	assert.NotNil(t, p.Badges)
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, 0, p.DailyProgress)

	p = Profile{Streak: 9, DailyProgress: 55}.WithDefaults()
	assert.Equal(t, 9, p.Streak)
	assert.Equal(t, 55, p.DailyProgress)
}

func TestCloneDoesNotShareBadges(t *testing.T) {
	p := Profile{Badges: []string{"a"}}
	c := p.Clone()
	c.Badges[0] = "b"

	assert.Equal(t, "a", p.Badges[0])
	assert.Equal(t, []string{"a"}, p.Badges)
}

func TestUpdateFromJSON(t *testing.T) {
	var u Update
	require.NoError(t, json.Unmarshal([]byte(`{"dailyProgress":0,"badges":[]}`), &u))
	assert.False(t, u.IsEmpty())

	p := u.Apply(Profile{Name: "Ana", DailyProgress: 80, Badges: []string{"x"}, Course: "3A"})
	assert.Equal(t, 0, p.DailyProgress, "explicit zero overwrites")
	assert.Empty(t, p.Badges)
	assert.Equal(t, "3A", p.Course)

	assert.True(t, Update{}.IsEmpty())
}
