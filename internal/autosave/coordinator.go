package autosave

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/asetta/kivo/internal/models"
)

type State string

const (
	StateIdle   State = "idle"
	StateSaving State = "saving"
	StateSaved  State = "saved"
	StateError  State = "error"
)

const (
	DefaultQuietPeriod = 750 * time.Millisecond
	defaultSavedHold   = 2 * time.Second
	defaultSaveTimeout = 30 * time.Second
)

// SaveFunc performs the actual persistence of a snapshot.
type SaveFunc func(ctx context.Context, snapshot []models.AssessmentSnapshotEntry) error

// Coordinator debounces a stream of assessment-field edits and persists the
// latest snapshot at most once per quiet period. Overlapping saves are
// serialized: a debounce that fires while a save is in flight queues strictly
// after it and picks up whatever snapshot is newest by then, so writes cannot
// reach the store out of order.
type Coordinator struct {
	quiet       time.Duration
	savedHold   time.Duration
	saveTimeout time.Duration
	save        SaveFunc
	logger      zerolog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	sawFirst  bool
	pending   []models.AssessmentSnapshotEntry
	lastSaved []models.AssessmentSnapshotEntry
	saving    bool
	queued    bool
	state     State
	lastErr   string
	savedAt   *time.Time

	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithQuietPeriod(d time.Duration) Option {
	return func(c *Coordinator) { c.quiet = d }
}

func WithSavedHold(d time.Duration) Option {
	return func(c *Coordinator) { c.savedHold = d }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.saveTimeout = d }
}

func New(save SaveFunc, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		quiet:       DefaultQuietPeriod,
		savedHold:   defaultSavedHold,
		saveTimeout: defaultSaveTimeout,
		save:        save,
		logger:      logger,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe feeds the coordinator a new snapshot. The very first snapshot is
// the data just loaded from the store, not a user edit, so it only seeds the
// change-detection baseline and never triggers a save. Each later snapshot
// resets the quiet-period timer; only the newest one survives.
func (c *Coordinator) Observe(snapshot []models.AssessmentSnapshotEntry) {
	snap := cloneSnapshot(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sawFirst {
		c.sawFirst = true
		c.lastSaved = snap
		return
	}

	c.pending = snap
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.tryFlush)
}

// Flush bypasses the remaining quiet period and attempts to persist the
// pending snapshot now. It is also the manual retry path after an error.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.tryFlush()
}

func (c *Coordinator) tryFlush() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	if c.saving {
		// Queue strictly after the in-flight save; it will re-run tryFlush
		// with the newest pending snapshot once it completes.
		c.queued = true
		c.mu.Unlock()
		return
	}

	snap := c.pending
	c.pending = nil
	if reflect.DeepEqual(snap, c.lastSaved) {
		// Nothing actually changed since the last successful save.
		c.mu.Unlock()
		return
	}

	c.saving = true
	c.state = StateSaving
	c.wg.Add(1)
	c.mu.Unlock()

	go c.runSave(snap)
}

func (c *Coordinator) runSave(snap []models.AssessmentSnapshotEntry) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	err := c.save(ctx, snap)
	cancel()

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.state = StateError
		c.lastErr = err.Error()
		// Keep the failed snapshot around so a manual Flush can retry it,
		// unless a newer edit already replaced it.
		if c.pending == nil {
			c.pending = snap
		}
		c.logger.Error().Err(err).Int("entries", len(snap)).Msg("Auto-save failed")
	} else {
		c.lastSaved = snap
		c.lastErr = ""
		now := time.Now()
		c.savedAt = &now
		c.state = StateSaved
		time.AfterFunc(c.savedHold, c.settle)
		c.logger.Debug().Int("entries", len(snap)).Msg("Auto-save completed")
	}
	queued := c.queued
	c.queued = false
	c.mu.Unlock()

	if queued {
		c.tryFlush()
	}
}

// settle returns the state to idle once the "saved" confirmation has been
// shown for long enough. Errors stay sticky until the next attempt.
func (c *Coordinator) settle() {
	c.mu.Lock()
	if c.state == StateSaved {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// Status reports the current state, the last successful save time, and the
// sticky error message if the last attempt failed.
func (c *Coordinator) Status() (State, *time.Time, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.savedAt, c.lastErr
}

// Close stops the debounce timer and waits for any in-flight save to finish.
// A dispatched save always runs to completion, it is never aborted.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func cloneSnapshot(snapshot []models.AssessmentSnapshotEntry) []models.AssessmentSnapshotEntry {
	out := make([]models.AssessmentSnapshotEntry, len(snapshot))
	copy(out, snapshot)
	for i := range out {
		if out[i].Mark != nil {
			m := *out[i].Mark
			out[i].Mark = &m
		}
	}
	return out
}
