/*
Package notify picks the ambient notification shown to a student.

A Scheduler ticks on a fixed period while a student session is active. Each tick
selects one Notification, which replaces the visible one and clears itself after
a fixed delay. At most one notification is ever visible.
*/
package notify

import (
	"fmt"

	"portalsync/internal/app/user"
)

// Kind identifies which notification variant was selected.
type Kind string

const (
	KindNewMessage Kind = "new_message"
	KindKeepGoing  Kind = "keep_going"
	KindStreak     Kind = "streak"
)

// Route is the view a click on a notification leads to.
type Route string

const (
	RouteChat      Route = "chat"
	RouteDashboard Route = "dashboard"
)

// keepGoingBelow is the daily progress under which the student is nudged to continue.
const keepGoingBelow = 50

// Notification is the visible ambient prompt.
type Notification struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"msg"`
	Icon  string `json:"icon"`

	// Count is the unread total for KindNewMessage, the streak for KindStreak.
	Count int `json:"count,omitempty"`
}

// Route returns where clicking n leads.
func (n Notification) Route() Route {
	if n.Kind == KindNewMessage {
		return RouteChat
	}
	return RouteDashboard
}

// Select chooses the notification for a student with the given unread count.
// Unread messages win, then low daily progress, then the streak reminder.
func Select(unread int, p user.Profile) Notification {
	switch {
	case unread > 0:
		return Notification{
			Kind:  KindNewMessage,
			Title: "¡Mensaje nuevo!",
			Body:  fmt.Sprintf("Tienes %d respuesta(s) de tu profe.", unread),
			Icon:  "✉️",
			Count: unread,
		}
	case p.DailyProgress < keepGoingBelow:
		return Notification{
			Kind:  KindKeepGoing,
			Title: "¡Casi lo logras!",
			Body:  "Te falta poco para tu meta del día.",
			Icon:  "🚀",
		}
	default:
		return Notification{
			Kind:  KindStreak,
			Title: "¡Hora de aprender!",
			Body:  fmt.Sprintf("¡No rompas tu racha de %d días!", p.Streak),
			Icon:  "🦅",
			Count: p.Streak,
		}
	}
}
