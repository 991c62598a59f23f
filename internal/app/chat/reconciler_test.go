package chat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalsync/internal/app/store"
)

func TestTickReplacesMemoryOnDivergence(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	l := NewLog(s)

	var events int
	var unreadAtEvent int
	r := NewReconciler(l, time.Hour, func() {
		events++
		unreadAtEvent = l.UnreadCountFor(studentAn)
	})

	seed(t, s, Message{ID: "1", From: "T1", To: "Ana"})

	assert.True(t, r.tick(ctx))
	assert.Equal(t, 1, events)
	assert.Equal(t, 1, unreadAtEvent, "memory is replaced before the callback runs")
	assert.Equal(t, persisted(t, s), l.Snapshot())

	assert.False(t, r.tick(ctx), "equal state must not fire again")
	assert.Equal(t, 1, events)
}

func TestTickIgnoresAbsentAndMalformed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	l := NewLog(s)
	_, err := l.Send(ctx, "Ana", "T1", "hola", "")
	require.NoError(t, err)
	before := l.Snapshot()

	fired := false
	r := NewReconciler(l, time.Hour, func() { fired = true })

	require.NoError(t, s.Remove(ctx, KeyMessages))
	assert.False(t, r.tick(ctx))

	require.NoError(t, s.Set(ctx, KeyMessages, []byte(`oops`)))
	assert.False(t, r.tick(ctx))

	assert.False(t, fired)
	assert.Equal(t, before, l.Snapshot())
}

func TestTickComparesByValue(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	seed(t, s, Message{ID: "1", To: "Ana", Text: "hola"})

	l := NewLog(s)
	l.Hydrate(ctx)

	// Same content, different bytes on disk.
	require.NoError(t, s.Set(ctx, KeyMessages, []byte(`[ {"text":"hola","to":"Ana","id":"1","from":"","timestamp":0,"read":false} ]`)))

	r := NewReconciler(l, time.Hour, nil)
	assert.False(t, r.tick(ctx))
}

func TestReconcilerConvergesWithinOnePeriod(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	l := NewLog(s)

	var events atomic.Int32
	r := NewReconciler(l, 10*time.Millisecond, func() { events.Add(1) })
	r.Start(ctx)
	defer r.Stop()

	seed(t, s, Message{ID: "1", From: "T1", To: "Ana"})

	require.Eventually(t, func() bool {
		return l.UnreadCountFor(studentAn) == 1
	}, time.Second, 5*time.Millisecond)

	// Several more periods with nothing new.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), events.Load())
}

func TestReconcilerStartStopIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewReconciler(NewLog(store.NewMemory()), 5*time.Millisecond, nil)

	r.Stop()
	assert.False(t, r.Running())

	r.Start(ctx)
	r.Start(ctx)
	assert.True(t, r.Running())

	r.Stop()
	r.Stop()
	assert.False(t, r.Running())

	r.Start(ctx)
	assert.True(t, r.Running())
	r.Stop()
}

func TestReconcilerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReconciler(NewLog(store.NewMemory()), 5*time.Millisecond, nil)
	r.Start(ctx)

	cancel()
	r.Stop()
	assert.False(t, r.Running())
}

// pausingStore blocks the first armed Get after reading, until resume is closed.
type pausingStore struct {
	*store.Memory
	armed  atomic.Bool
	paused chan struct{}
	resume chan struct{}
}

func (p *pausingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := p.Memory.Get(ctx, key)
	if p.armed.CompareAndSwap(true, false) {
		close(p.paused)
		<-p.resume
	}
	return raw, ok, err
}

func TestTickDoesNotRevertConcurrentLocalWrites(t *testing.T) {
	ctx := context.Background()
	s := &pausingStore{
		Memory: store.NewMemory(),
		paused: make(chan struct{}),
		resume: make(chan struct{}),
	}
	seed(t, s, Message{ID: "1", From: "T1", To: "Ana", Text: "hola"})

	l := NewLog(s)
	l.Hydrate(ctx)

	s.armed.Store(true)
	tickDone := make(chan bool)
	go func() {
		changed, _ := l.Reconcile(ctx)
		tickDone <- changed
	}()
	<-s.paused

	writesDone := make(chan struct{})
	go func() {
		defer close(writesDone)
		n, err := l.MarkRead(ctx, AddressedTo("Ana"))
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = l.Send(ctx, "Ana", "T1", "gracias", "")
		assert.NoError(t, err)
	}()

	assert.Never(t, func() bool {
		select {
		case <-writesDone:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "local writes wait for the tick")

	close(s.resume)
	assert.False(t, <-tickDone, "the stale read matched memory")
	<-writesDone

	_, err := l.Send(ctx, "Ana", "T1", "otra", "")
	require.NoError(t, err)

	stored := persisted(t, s)
	require.Len(t, stored, 3)
	assert.True(t, stored[0].Read)
	assert.Equal(t, "gracias", stored[1].Text)
	assert.Equal(t, stored, l.Snapshot())
}
