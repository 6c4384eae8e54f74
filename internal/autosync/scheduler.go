// Package autosync debounces store mutations and flushes dirty collections to
// the persistence gateway in the background.
package autosync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/metrics"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultDelay = 2 * time.Second

	// shutdownFlushTimeout bounds the last flush done when Run is cancelled.
	shutdownFlushTimeout = 5 * time.Second
)

var ErrSyncInProgress = errors.New("sync already in progress")

//go:generate mockgen -source=$GOFILE -destination=scheduler_mocks_test.go -package=autosync_test

// Store is the part of the domain store the scheduler flushes from.
type Store interface {
	DirtySnapshot() diary.DirtySet
	MarkSynced(d diary.DirtySet)
	HasPending() bool
	Pending() diary.PendingChanges
}

// Syncer writes dirty collections to the backing store.
type Syncer interface {
	Sync(ctx context.Context, dirty diary.DirtySet) error
}

type State int

const (
	StateIdle State = iota
	StateWaiting
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

type Status struct {
	State        string     `json:"state"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	LastSyncAt   *time.Time `json:"lastSyncAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	SyncCount    int        `json:"syncCount"`
	FailureCount int        `json:"failureCount"`
}

type Option func(*Scheduler)

func WithDelay(delay time.Duration) Option {
	return func(s *Scheduler) {
		if delay > 0 {
			s.delay = delay
		}
	}
}

// Scheduler is an Idle / Waiting / Flushing state machine. Mutations (Notify)
// arm or re-arm the debounce timer; when it fires the dirty collections are
// flushed. A failed flush leaves all flags set and waits for the next mutation.
type Scheduler struct {
	store          Store
	syncer         Syncer
	metricsManager *metrics.Manager
	delay          time.Duration

	notifyCh chan struct{}

	mu           sync.Mutex
	flushing     bool
	deadline     time.Time
	lastSyncAt   time.Time
	lastErr      error
	syncCount    int
	failureCount int
}

func NewScheduler(store Store, syncer Syncer, metricsManager *metrics.Manager, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:          store,
		syncer:         syncer,
		metricsManager: metricsManager,
		delay:          DefaultDelay,
		notifyCh:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify signals a store mutation. It never blocks and is meant to be
// registered as a store observer.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Run drives the state machine until ctx is done, then does one last
// best-effort flush of whatever is still pending.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.delay)
	timer.Stop()

	arm := func() {
		timer.Reset(s.delay)
		s.mu.Lock()
		s.deadline = time.Now().Add(s.delay)
		s.mu.Unlock()
	}

	log.Debugf("autosync started, delay %s", s.delay)
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			s.shutdownFlush(ctx)
			return
		case <-s.notifyCh:
			arm()
		case <-timer.C:
			s.mu.Lock()
			s.deadline = time.Time{}
			s.mu.Unlock()

			if !s.store.HasPending() {
				continue
			}
			err := s.flush(ctx, "timer")
			if errors.Is(err, ErrSyncInProgress) {
				// a manual save is running, look again after it
				arm()
				continue
			}
			if err == nil && s.store.HasPending() {
				arm()
			}
		}
	}
}

func (s *Scheduler) shutdownFlush(ctx context.Context) {
	if !s.store.HasPending() {
		return
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()
	if err := s.flush(flushCtx, "shutdown"); err != nil {
		log.Errorf("autosync: final flush: %s", err)
	}
}

// FlushNow is the manual save. It returns ErrSyncInProgress while another
// flush is in flight and is a no-op when nothing is pending.
func (s *Scheduler) FlushNow(ctx context.Context) error {
	err := s.flush(ctx, "manual")
	if err == nil && s.store.HasPending() {
		s.Notify()
	}
	return err
}

func (s *Scheduler) flush(ctx context.Context, trigger string) (err error) {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return ErrSyncInProgress
	}
	s.flushing = true
	s.mu.Unlock()

	dirty := s.store.DirtySnapshot()
	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	if dirty.IsEmpty() {
		return nil
	}

	ctx, span := tracing.GlobalSyncTracer.Start(ctx, "autosync.flush")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("trigger", trigger),
		attribute.Int("collections", len(dirty.Collections)),
	)

	s.metricsManager.GaugePendingCollections.Set(float64(len(dirty.Collections)))
	start := time.Now()
	err = s.syncer.Sync(ctx, dirty)
	s.metricsManager.HistogramSyncDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.metricsManager.GaugePendingCollections.Set(float64(s.store.Pending().Count()))
		s.lastErr = err
		s.failureCount++
		s.metricsManager.CounterSyncs.WithLabelValues(trigger, "error").Inc()
		log.Errorf("autosync: %s flush of %v failed: %s", trigger, dirty.Collections, err)
		return err
	}

	s.store.MarkSynced(dirty)
	// mutations made during the flush stay pending
	s.metricsManager.GaugePendingCollections.Set(float64(s.store.Pending().Count()))
	s.lastErr = nil
	s.lastSyncAt = time.Now()
	s.syncCount++
	s.metricsManager.CounterSyncs.WithLabelValues(trigger, "ok").Inc()
	log.Debugf("autosync: %s flush of %v done in %s", trigger, dirty.Collections, time.Since(start))
	return nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

func (s *Scheduler) state() State {
	switch {
	case s.flushing:
		return StateFlushing
	case !s.deadline.IsZero():
		return StateWaiting
	default:
		return StateIdle
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		State:        s.state().String(),
		SyncCount:    s.syncCount,
		FailureCount: s.failureCount,
	}
	if !s.deadline.IsZero() {
		deadline := s.deadline
		status.Deadline = &deadline
	}
	if !s.lastSyncAt.IsZero() {
		lastSyncAt := s.lastSyncAt
		status.LastSyncAt = &lastSyncAt
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}
