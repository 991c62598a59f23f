/*
Package chat owns the shared message log and keeps the in-memory copy in step
with the persisted one.

Messages are appended by Send and mutated only by MarkRead. Other portal
processes write the same store key; the Reconciler polls it and republishes
their changes.
*/
package chat

import (
	"portalsync/internal/app/user"
)

// TeacherInbox is the recipient token meaning "any teacher".
const TeacherInbox = "teacher"

// MaxContentBytes is the largest accepted message text.
const MaxContentBytes = 5000

// Message is one entry of the log. JSON names match the persisted layout.
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`

	// Timestamp is the send time in Unix milliseconds. Display only.
	Timestamp int64 `json:"timestamp"`

	Read    bool   `json:"read"`
	Subject string `json:"subject,omitempty"`
}

// Predicate selects messages for MarkRead.
type Predicate func(m Message) bool

// AddressedTo matches messages whose recipient is exactly name.
func AddressedTo(name string) Predicate {
	return func(m Message) bool {
		return m.To == name
	}
}

// InboxOf matches what p reads: their own name, plus the shared teacher inbox
// when p is a teacher.
func InboxOf(p user.Profile) Predicate {
	return func(m Message) bool {
		if m.To == p.Name {
			return true
		}
		return p.IsTeacher() && m.To == TeacherInbox
	}
}

// Conversation matches the messages in reader's inbox that peer sent.
func Conversation(reader user.Profile, peer string) Predicate {
	inbox := InboxOf(reader)
	return func(m Message) bool {
		return m.From == peer && inbox(m)
	}
}
