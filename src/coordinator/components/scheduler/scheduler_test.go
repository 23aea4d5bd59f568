package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torchfund/voteexec/src/coordinator/components/migrate"
	"github.com/torchfund/voteexec/src/coordinator/components/settle"
)

type phaseRecorder struct {
	mu    sync.Mutex
	order []string

	migrateCalls atomic.Int32
	settleCalls  atomic.Int32
	block        chan struct{}
}

func (r *phaseRecorder) MigrateBatch(context.Context) (migrate.Report, error) {
	r.migrateCalls.Add(1)
	r.mu.Lock()
	r.order = append(r.order, "migrate")
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return migrate.Report{}, nil
}

func (r *phaseRecorder) ResolvePending(context.Context) (settle.Report, error) {
	r.settleCalls.Add(1)
	r.mu.Lock()
	r.order = append(r.order, "settle")
	r.mu.Unlock()
	return settle.Report{}, nil
}

func TestRunCycleRunsMigrationBeforeResolution(t *testing.T) {
	rec := &phaseRecorder{}
	s := New(rec, rec, nil, time.Hour)

	s.RunCycle(context.Background())

	require.Equal(t, []string{"migrate", "settle"}, rec.order)
}

func TestConcurrentTriggerIsSkippedNotQueued(t *testing.T) {
	rec := &phaseRecorder{block: make(chan struct{})}
	s := New(rec, rec, nil, time.Hour)

	done := make(chan struct{})
	go func() {
		s.RunCycle(context.Background())
		close(done)
	}()

	// Wait for the first cycle to enter the migration phase.
	require.Eventually(t, func() bool {
		return rec.migrateCalls.Load() == 1
	}, time.Second, time.Millisecond)

	// A manual trigger while migration holds the lock must not run a
	// second migration.
	s.runMigration(context.Background())
	assert.Equal(t, int32(1), rec.migrateCalls.Load())

	close(rec.block)
	<-done
	assert.Equal(t, int32(1), rec.settleCalls.Load())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	rec := &phaseRecorder{}
	s := New(rec, rec, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return rec.migrateCalls.Load() >= 2
	}, time.Second, time.Millisecond, "runs immediately and then on the ticker")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
