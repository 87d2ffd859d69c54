package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func testGradingConfig() *config.GradingConfig {
	return &config.GradingConfig{
		Workers:           1,
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		DequeueTimeout:    100 * time.Millisecond,
		LockTTL:           time.Minute,
		HeartbeatInterval: time.Hour,
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewClient(rdb, testGradingConfig(), nopLogger{})
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 2 * time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(2*time.Second, tt.attempt); got != tt.want {
			t.Errorf("Backoff(2s, %d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestEnqueueAndJob(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}

	job, err := client.Job(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil {
		t.Fatal("job record missing after enqueue")
	}
	if job.Status != domain.JobQueued || job.Attempts != 0 {
		t.Errorf("job = %+v", job)
	}
	if job.EnqueuedAt.IsZero() {
		t.Error("EnqueuedAt not recorded")
	}

	got, err := client.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("Dequeue = %s, want %s", got, id)
	}
}

func TestJobMissing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	job, err := client.Job(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if job != nil {
		t.Errorf("job = %+v, want nil", job)
	}
}

func TestDequeueEmptyQueue(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	_, err := client.Dequeue(context.Background())
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("got %v, want redis.Nil", err)
	}
}

func TestScheduleRetryAndPromote(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}

	client.scheduleRetry(ctx, id, "sandbox unavailable", time.Now().Add(-time.Second))

	job, err := client.Job(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.JobQueued || job.LastError != "sandbox unavailable" {
		t.Errorf("job = %+v", job)
	}

	// Not on the ready list until promoted.
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("delayed job leaked onto ready list: %v", err)
	}
	if err := client.promoteDue(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := client.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("promoted id = %s, want %s", got, id)
	}
}

func TestPromoteLeavesFutureRetries(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	client.scheduleRetry(ctx, id, "still failing", time.Now().Add(time.Hour))
	if err := client.promoteDue(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("future retry promoted early: %v", err)
	}
}

func TestLockOwnership(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	acquired, err := client.acquireLock(ctx, id, "worker-a")
	if err != nil || !acquired {
		t.Fatalf("first acquire = %v, %v", acquired, err)
	}
	acquired, err = client.acquireLock(ctx, id, "worker-b")
	if err != nil || acquired {
		t.Fatalf("second acquire = %v, %v", acquired, err)
	}

	// A stranger releasing does not free the lock.
	client.releaseLock(ctx, id, "worker-b")
	acquired, err = client.acquireLock(ctx, id, "worker-b")
	if err != nil || acquired {
		t.Fatalf("acquire after foreign release = %v, %v", acquired, err)
	}

	client.releaseLock(ctx, id, "worker-a")
	acquired, err = client.acquireLock(ctx, id, "worker-b")
	if err != nil || !acquired {
		t.Fatalf("acquire after owner release = %v, %v", acquired, err)
	}
}

func TestHistoryCapped(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()

	var lastCompleted, lastFailed uuid.UUID
	for i := 0; i < completedHistoryLen+2; i++ {
		lastCompleted = uuid.New()
		if err := client.Enqueue(ctx, lastCompleted); err != nil {
			t.Fatal(err)
		}
		client.markCompleted(ctx, lastCompleted)
	}
	for i := 0; i < failedHistoryLen+2; i++ {
		lastFailed = uuid.New()
		if err := client.Enqueue(ctx, lastFailed); err != nil {
			t.Fatal(err)
		}
		client.markFailed(ctx, lastFailed, fmt.Sprintf("failure %d", i))
	}

	completed, failed, err := client.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != completedHistoryLen {
		t.Errorf("completed history len = %d, want %d", len(completed), completedHistoryLen)
	}
	if len(failed) != failedHistoryLen {
		t.Errorf("failed history len = %d, want %d", len(failed), failedHistoryLen)
	}
	// Newest first.
	if completed[0].SubmissionID != lastCompleted {
		t.Errorf("completed[0] = %s, want %s", completed[0].SubmissionID, lastCompleted)
	}
	if failed[0].SubmissionID != lastFailed || failed[0].Status != domain.JobFailed {
		t.Errorf("failed[0] = %+v", failed[0])
	}
	if failed[0].LastError == "" {
		t.Error("failure reason lost from history")
	}
}

func TestReclaimOrphansRequeuesDeadWorkerJobs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}
	// A worker pops the job and dies before finishing: no ack, no lock.
	if _, err := client.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("popped job must leave the ready list: %v", err)
	}

	if err := client.reclaimOrphans(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := client.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("reclaimed id = %s, want %s", got, id)
	}
}

func TestReclaimOrphansSkipsLockedJobs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}
	// The popping worker is alive and mid-job.
	if acquired, err := client.acquireLock(ctx, id, "worker-a"); err != nil || !acquired {
		t.Fatalf("acquire = %v, %v", acquired, err)
	}

	if err := client.reclaimOrphans(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("locked job must not be requeued: %v", err)
	}

	// Once the worker acks, nothing is left to reclaim.
	client.ack(ctx, id)
	if err := client.reclaimOrphans(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("acked job resurrected: %v", err)
	}
}

func TestRequeueLaterParksContendedJob(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); err != nil {
		t.Fatal(err)
	}

	client.requeueLater(ctx, id, 10*time.Millisecond)

	// Off the processing list, so not an orphan.
	if err := client.reclaimOrphans(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Dequeue(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("parked job surfaced early: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := client.promoteDue(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := client.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Errorf("promoted id = %s, want %s", got, id)
	}
}

func TestMarkActiveRecordsAttempt(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	if err := client.Enqueue(ctx, id); err != nil {
		t.Fatal(err)
	}
	client.markActive(ctx, id, 2)

	job, err := client.Job(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.JobActive || job.Attempts != 2 {
		t.Errorf("job = %+v", job)
	}
}
