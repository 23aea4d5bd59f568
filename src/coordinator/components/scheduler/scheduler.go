package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/torchfund/voteexec/src/coordinator/components/migrate"
	"github.com/torchfund/voteexec/src/coordinator/components/settle"
	"github.com/torchfund/voteexec/src/coordinator/data"
)

const leaseTTL = 30 * time.Minute

type Migrator interface {
	MigrateBatch(ctx context.Context) (migrate.Report, error)
}

type Settler interface {
	ResolvePending(ctx context.Context) (settle.Report, error)
}

// Scheduler drives the migration and resolution phases sequentially on
// a fixed cadence. Each phase holds a mutual-exclusion guard so a
// manual trigger cannot interleave with the scheduled run; with Redis
// configured the guard also covers other replicas.
type Scheduler struct {
	migrator Migrator
	settler  Settler
	rdb      *redis.Client
	interval time.Duration

	migrateMu sync.Mutex
	resolveMu sync.Mutex
}

// New builds a scheduler. rdb may be nil, in which case only the
// in-process guard applies.
func New(migrator Migrator, settler Settler, rdb *redis.Client, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		migrator: migrator,
		settler:  settler,
		rdb:      rdb,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, executing one cycle immediately
// and then one per interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: stopping")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes migration then resolution once. Exported so an
// operator endpoint (or a test) can trigger a cycle synchronously.
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.runMigration(ctx)
	s.runResolution(ctx)
}

func (s *Scheduler) runMigration(ctx context.Context) {
	if !s.migrateMu.TryLock() {
		log.Printf("scheduler: migration already running, skipping")
		return
	}
	defer s.migrateMu.Unlock()

	release, ok := s.lease(ctx, "migration")
	if !ok {
		return
	}
	defer release()

	if _, err := s.migrator.MigrateBatch(ctx); err != nil {
		// Cycle-level failure; retried on the next tick.
		log.Printf("scheduler: migration cycle failed: %v", err)
	}
}

func (s *Scheduler) runResolution(ctx context.Context) {
	if !s.resolveMu.TryLock() {
		log.Printf("scheduler: resolution already running, skipping")
		return
	}
	defer s.resolveMu.Unlock()

	release, ok := s.lease(ctx, "resolution")
	if !ok {
		return
	}
	defer release()

	if _, err := s.settler.ResolvePending(ctx); err != nil {
		log.Printf("scheduler: resolution cycle failed: %v", err)
	}
}

// lease takes the cross-replica lock when Redis is configured. Returns
// a release func and whether the phase may proceed.
func (s *Scheduler) lease(ctx context.Context, name string) (func(), bool) {
	if s.rdb == nil {
		return func() {}, true
	}
	ok, err := data.AcquireLock(ctx, s.rdb, name, leaseTTL)
	if err != nil {
		log.Printf("scheduler: %s lock unavailable: %v", name, err)
		return nil, false
	}
	if !ok {
		log.Printf("scheduler: %s held elsewhere, skipping", name)
		return nil, false
	}
	return func() {
		if err := data.ReleaseLock(context.WithoutCancel(ctx), s.rdb, name); err != nil {
			log.Printf("scheduler: release %s lock: %v", name, err)
		}
	}, true
}
