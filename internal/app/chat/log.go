package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portalsync/internal/app/store"
	"portalsync/internal/app/user"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
	"portalsync/internal/pkg/randx"
)

// KeyMessages is the persisted key of the message collection.
const KeyMessages = "josias_messages"

// ErrInvalidMessage is returned by Send for empty or oversized text.
var ErrInvalidMessage = errors.New("invalid message")

// readWarnings limits the warning logged when every poll fails to read the store.
var readWarnings = logx.NewThrottle(time.Minute)

// Log is the in-memory message collection backed by the store.
type Log struct {
	store store.Store

	// mu guards messages. Local writes and reconcile both hold it across their
	// store access, so a reconcile never replaces memory with a copy read before
	// a local write.
	mu       sync.RWMutex
	messages []Message

	now    func() time.Time
	logger zerolog.Logger
}

// NewLog returns an empty Log over s. Call Hydrate to load persisted messages.
func NewLog(s store.Store) *Log {
	return &Log{
		store:    s,
		messages: []Message{},
		now:      time.Now,
		logger:   logx.Component("messages"),
	}
}

// Hydrate replaces memory with the persisted collection. An absent or malformed
// collection leaves the log empty.
func (l *Log) Hydrate(ctx context.Context) int {
	var persisted []Message
	if !store.GetJSON(ctx, l.store, KeyMessages, &persisted) || persisted == nil {
		persisted = []Message{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = persisted
	l.logger.Debug().Int("count", len(persisted)).Msg("Message log hydrated")

	return len(persisted)
}

// Snapshot returns a copy of every message in log order.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.messages)
}

// Filter returns a copy of the messages matching pred.
func (l *Log) Filter(pred Predicate) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, 0)
	for _, m := range l.messages {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// Send appends a new unread message and persists the collection. Memory only
// changes once the write succeeded.
func (l *Log) Send(ctx context.Context, from, to, text, subject string) (Message, error) {
	if strings.TrimSpace(text) == "" || len(text) > MaxContentBytes {
		return Message{}, fmt.Errorf("%w: text must be between 1 and %d bytes", ErrInvalidMessage, MaxContentBytes)
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Message{}, fmt.Errorf("%w: sender and recipient are required", ErrInvalidMessage)
	}

	msg := Message{
		ID:        randx.MessageID(),
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: l.now().UnixMilli(),
		Read:      false,
		Subject:   subject,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(slices.Clone(l.messages), msg)
	if err := store.SetJSON(ctx, l.store, KeyMessages, next); err != nil {
		return Message{}, err
	}
	l.messages = next

	metrics.MessagesSent.Inc()
	l.logger.Debug().
		Str("message_id", msg.ID).
		Str("from", from).
		Str("to", to).
		Msg("Message sent")

	return msg, nil
}

// MarkRead sets Read on every unread message matching pred and returns how many
// changed. The collection is persisted only when something changed, so a
// repeated call is a no-op. Memory is left untouched when the write fails.
func (l *Log) MarkRead(ctx context.Context, pred Predicate) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var next []Message
	changed := 0
	for i, m := range l.messages {
		if m.Read || !pred(m) {
			continue
		}
		if next == nil {
			next = slices.Clone(l.messages)
		}
		next[i].Read = true
		changed++
	}

	if changed == 0 {
		return 0, nil
	}

	if err := store.SetJSON(ctx, l.store, KeyMessages, next); err != nil {
		return 0, err
	}
	l.messages = next

	l.logger.Debug().Int("count", changed).Msg("Messages marked read")

	return changed, nil
}

// UnreadCountFor counts unread messages in p's inbox. Teachers also see the
// shared teacher inbox; students only their own name.
func (l *Log) UnreadCountFor(p user.Profile) int {
	inbox := InboxOf(p)

	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, m := range l.messages {
		if !m.Read && inbox(m) {
			count++
		}
	}
	return count
}

// Reconcile reads the persisted collection and, when it differs by value from
// memory, replaces memory with it. It reports whether memory changed and the
// size of the payload read. An absent or malformed collection changes nothing.
func (l *Log) Reconcile(ctx context.Context) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, ok, err := l.store.Get(ctx, KeyMessages)
	if err != nil {
		readWarnings.Warn("Failed to read persisted messages", "error", err.Error())
		return false, 0
	}
	if !ok {
		return false, 0
	}

	var persisted []Message
	if !store.DecodeJSON(KeyMessages, raw, &persisted) {
		return false, len(raw)
	}
	if persisted == nil {
		persisted = []Message{}
	}

	if slices.Equal(persisted, l.messages) {
		return false, len(raw)
	}

	l.messages = persisted
	return true, len(raw)
}
