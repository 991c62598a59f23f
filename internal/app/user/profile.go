/*
Package user holds the portal's user profiles and the current-session pointer.

Profiles are identified by name, compared case-insensitively. The Repository is
the only writer of the persisted profile list and of the current-user pointer.
*/
package user

import (
	"slices"
	"strings"
)

// Role distinguishes students from teachers.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Profile is a portal user. JSON names match the persisted layout.
type Profile struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`

	// Avatar is a single emoji.
	Avatar  string `json:"avatar"`
	Course  string `json:"course"`
	Role    Role   `json:"role"`
	Subject string `json:"subject,omitempty"`

	TotalStars    int      `json:"totalStars"`
	Badges        []string `json:"badges"`
	Streak        int      `json:"streak"`
	DailyProgress int      `json:"dailyProgress"`
}

// SameIdentity reports whether two names denote the same profile.
func SameIdentity(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsStudent reports whether p has the student role.
func (p Profile) IsStudent() bool { return p.Role == RoleStudent }

// IsTeacher reports whether p has the teacher role.
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }

// WithDefaults fills fields a stored profile may lack: no stars is 0, no badges
// is an empty set, a streak below 1 is 1, and progress is kept within 0..100.
func (p Profile) WithDefaults() Profile {
	if p.TotalStars < 0 {
		p.TotalStars = 0
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if p.Streak < 1 {
		p.Streak = 1
	}
	p.DailyProgress = min(max(p.DailyProgress, 0), 100)
	return p
}

// Clone returns a copy that shares no memory with p.
func (p Profile) Clone() Profile {
	p.Badges = slices.Clone(p.Badges)
	return p
}

// Update is a partial profile. Nil fields leave the current value untouched.
type Update struct {
	Name          *string   `json:"name,omitempty"`
	Avatar        *string   `json:"avatar,omitempty"`
	Course        *string   `json:"course,omitempty"`
	Subject       *string   `json:"subject,omitempty"`
	TotalStars    *int      `json:"totalStars,omitempty"`
	Badges        *[]string `json:"badges,omitempty"`
	Streak        *int      `json:"streak,omitempty"`
	DailyProgress *int      `json:"dailyProgress,omitempty"`
}

// IsEmpty reports whether u sets no field.
func (u Update) IsEmpty() bool {
	return u == (Update{})
}

// Apply returns p with every set field of u overwritten.
func (u Update) Apply(p Profile) Profile {
	p = p.Clone()

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Course != nil {
		p.Course = *u.Course
	}
	if u.Subject != nil {
		p.Subject = *u.Subject
	}
	if u.TotalStars != nil {
		p.TotalStars = *u.TotalStars
	}
	if u.Badges != nil {
		p.Badges = slices.Clone(*u.Badges)
	}
	if u.Streak != nil {
		p.Streak = *u.Streak
	}
	if u.DailyProgress != nil {
		p.DailyProgress = *u.DailyProgress
	}

	return p
}
