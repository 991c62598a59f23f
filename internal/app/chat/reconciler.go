package chat

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/metrics"
)

// DefaultSyncInterval is the polling period used when none is configured.
const DefaultSyncInterval = 2 * time.Second

// Reconciler polls the persisted message collection and republishes external
// changes into a Log. One goroutine runs the ticks, so a tick never overlaps
// the previous one.
type Reconciler struct {
	log      *Log
	interval time.Duration

	// onChange runs after memory has been replaced, on the ticking goroutine.
	onChange func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	logger zerolog.Logger
}

// NewReconciler returns a stopped Reconciler. onChange may be nil.
func NewReconciler(log *Log, interval time.Duration, onChange func()) *Reconciler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	return &Reconciler{
		log:      log,
		interval: interval,
		onChange: onChange,
		logger:   logx.Component("reconciler"),
	}
}

// Start launches the polling loop. Calling Start on a running Reconciler does
// nothing. The loop ends when Stop is called or ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.logger.Debug().Msg("Reconciler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go r.run(loopCtx, done)

	r.logger.Debug().Dur("interval", r.interval).Msg("Reconciler started")
}

// Stop cancels the loop and waits for it to exit. Stopping a stopped
// Reconciler does nothing.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	r.logger.Debug().Msg("Reconciler stopped")
}

// Running reports whether the loop is active.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cancel != nil
}

func (r *Reconciler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one reconciliation and reports whether memory changed.
func (r *Reconciler) tick(ctx context.Context) bool {
	metrics.ReconcileTicks.Inc()

	changed, size := r.log.Reconcile(ctx)
	if !changed {
		return false
	}

	metrics.ReconcileUpdates.Inc()
	r.logger.Debug().
		Str("payload", humanize.Bytes(uint64(size))).
		Msg("Persisted messages changed, memory replaced")

	if r.onChange != nil {
		r.onChange()
	}
	return true
}
