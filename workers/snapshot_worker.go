package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-co-op/gocron/v2"

	"cuemaster/events"
	"cuemaster/services"
)

// Archiver stores a copy of a snapshot outside the database.
type Archiver interface {
	Archive(ctx context.Context, snap *services.Snapshot) (string, error)
}

// Snapshotter is the leaderboard operation the worker drives.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*services.Snapshot, error)
}

// SnapshotWorker keeps leaderboard snapshots current. Decided matches mark
// the leaderboard dirty and the periodic job snapshots it; a completed
// tournament snapshots right away.
type SnapshotWorker struct {
	leaderboard Snapshotter
	archiver    Archiver
	interval    time.Duration
	logger      *slog.Logger

	mu    sync.Mutex
	dirty bool
	sched gocron.Scheduler
}

// NewSnapshotWorker returns a worker; archiver may be nil.
func NewSnapshotWorker(lb Snapshotter, archiver Archiver, interval time.Duration, logger *slog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		leaderboard: lb,
		archiver:    archiver,
		interval:    interval,
		logger:      logger,
		dirty:       true,
	}
}

// RunOnce snapshots and archives unconditionally.
func (w *SnapshotWorker) RunOnce(ctx context.Context) (*services.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run(ctx)
}

func (w *SnapshotWorker) run(ctx context.Context) (*services.Snapshot, error) {
	snap, err := w.leaderboard.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	w.dirty = false

	if w.archiver != nil {
		key, err := w.archiver.Archive(ctx, snap)
		if err != nil {
			// the database copy is authoritative; the archive is best effort
			w.logger.Error("Failed to archive snapshot", slog.String("snapshot_id", snap.ID), slog.Any("error", err))
			return snap, nil
		}
		w.logger.Info("Snapshot archived", slog.String("snapshot_id", snap.ID), slog.String("key", key))
	}
	return snap, nil
}

// runIfDirty is the scheduled task.
func (w *SnapshotWorker) runIfDirty(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty {
		return
	}
	if _, err := w.run(ctx); err != nil {
		w.logger.Error("Scheduled snapshot failed", slog.Any("error", err))
	}
}

func (w *SnapshotWorker) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

func (w *SnapshotWorker) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// Subscribe wires the worker to the domain events on bus.
func (w *SnapshotWorker) Subscribe(ctx context.Context, bus *events.Bus) error {
	err := bus.Subscribe(ctx, events.TopicMatchDecided, func(_ context.Context, _ *message.Message) error {
		w.markDirty()
		return nil
	})
	if err != nil {
		return err
	}
	return bus.Subscribe(ctx, events.TopicTournamentCompleted, func(_ context.Context, msg *message.Message) error {
		ev, err := events.Decode[events.TournamentCompleted](msg)
		if err != nil {
			return err
		}
		w.logger.Info("Tournament completed, refreshing leaderboard", slog.String("tournament_id", ev.TournamentID))
		_, err = w.RunOnce(ctx)
		return err
	})
}

// Start schedules the periodic job; it stops when ctx is done.
func (w *SnapshotWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.runIfDirty(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}
	sched.Start()
	w.sched = sched

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			w.logger.Error("Scheduler shutdown failed", slog.Any("error", err))
		}
	}()
	w.logger.Info("Snapshot job scheduled", slog.Duration("interval", w.interval))
	return nil
}
