package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

const (
	queueKey      = "grading:queue"
	processingKey = "grading:processing"
	delayedKey    = "grading:delayed"
	jobKeyPrefix  = "grading:job:"
	lockKeyPrefix = "grading:lock:"
	completedKey  = "grading:jobs:completed"
	failedKey     = "grading:jobs:failed"

	completedHistoryLen = 10
	failedHistoryLen    = 5
)

// ErrTerminal marks a handler failure that retrying cannot fix. Workers
// fail such jobs immediately instead of burning attempts.
var ErrTerminal = errors.New("terminal job failure")

// releaseScript deletes the lock only when the caller still owns it, so a
// worker whose lock expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Backoff returns the delay before the given retry attempt: the base
// doubles with each attempt after the first.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// Client is the Redis-backed grading queue. Ready jobs live in a list
// consumed with BRPOP, delayed retries in a sorted set scored by their
// ready time, and per-job state in a hash keyed by submission id.
type Client struct {
	rdb    *redis.Client
	cfg    *config.GradingConfig
	logger primary.Logger
}

func NewClient(rdb *redis.Client, cfg *config.GradingConfig, logger primary.Logger) *Client {
	return &Client{rdb: rdb, cfg: cfg, logger: logger}
}

var _ secondary.GradingQueue = (*Client)(nil)

func (c *Client) Enqueue(ctx context.Context, submissionID uuid.UUID) error {
	now := time.Now()
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(submissionID), map[string]interface{}{
		"status":     string(domain.JobQueued),
		"attempts":   0,
		"lastError":  "",
		"enqueuedAt": now.Format(time.RFC3339Nano),
	})
	pipe.LPush(ctx, queueKey, submissionID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (c *Client) Job(ctx context.Context, submissionID uuid.UUID) (*domain.GradingJob, error) {
	fields, err := c.rdb.HGetAll(ctx, jobKey(submissionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	job := parseJob(submissionID, fields)
	return &job, nil
}

func (c *Client) History(ctx context.Context) (completed, failed []domain.GradingJob, err error) {
	completed, err = c.historyList(ctx, completedKey)
	if err != nil {
		return nil, nil, err
	}
	failed, err = c.historyList(ctx, failedKey)
	if err != nil {
		return nil, nil, err
	}
	return completed, failed, nil
}

func (c *Client) historyList(ctx context.Context, key string) ([]domain.GradingJob, error) {
	raw, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]domain.GradingJob, 0, len(raw))
	for _, item := range raw {
		var job domain.GradingJob
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			c.logger.Warn("dropping unreadable history entry", "key", key, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Dequeue blocks until a job id is ready or the timeout passes; redis.Nil
// means the queue stayed empty. The id is moved onto the processing list
// rather than popped outright, so a crash between pop and finish leaves a
// reclaimable trace instead of losing the job.
func (c *Client) Dequeue(ctx context.Context) (uuid.UUID, error) {
	value, err := c.rdb.BRPopLPush(ctx, queueKey, processingKey, c.cfg.DequeueTimeout).Result()
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(value)
	if err != nil {
		c.rdb.LRem(ctx, processingKey, 1, value)
		return uuid.Nil, fmt.Errorf("malformed job id %q: %w", value, err)
	}
	return id, nil
}

// ack drops a finished job from the processing list.
func (c *Client) ack(ctx context.Context, submissionID uuid.UUID) {
	if err := c.rdb.LRem(ctx, processingKey, 1, submissionID.String()).Err(); err != nil {
		c.logger.Warn("failed to ack processed job", "submissionID", submissionID, "error", err)
	}
}

// requeueLater parks a popped id back in the delayed set without touching
// its job record, used when the pop raced a lock held by another worker.
func (c *Client) requeueLater(ctx context.Context, submissionID uuid.UUID, delay time.Duration) {
	pipe := c.rdb.TxPipeline()
	pipe.LRem(ctx, processingKey, 1, submissionID.String())
	pipe.ZAdd(ctx, delayedKey, &redis.Z{Score: float64(time.Now().Add(delay).UnixNano()), Member: submissionID.String()})
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to requeue contended job", "submissionID", submissionID, "error", err)
	}
}

// reclaimOrphans pushes processing entries left behind by dead workers
// back onto the ready list. An entry whose lock is still held belongs to
// a live worker and stays put; its owner acks it on finish.
func (c *Client) reclaimOrphans(ctx context.Context) error {
	ids, err := c.rdb.LRange(ctx, processingKey, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		held, err := c.rdb.Exists(ctx, lockKeyPrefix+id).Result()
		if err != nil {
			return err
		}
		if held > 0 {
			continue
		}
		pipe := c.rdb.TxPipeline()
		pipe.LRem(ctx, processingKey, 1, id)
		pipe.LPush(ctx, queueKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		c.logger.Warn("requeued orphaned grading job", "submissionID", id)
	}
	return nil
}

// promoteDue moves delayed retries whose ready time has passed back onto
// the ready list.
func (c *Client) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixNano())
	due, err := c.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil || len(due) == 0 {
		return err
	}
	pipe := c.rdb.TxPipeline()
	for _, member := range due {
		pipe.ZRem(ctx, delayedKey, member)
		pipe.LPush(ctx, queueKey, member)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *Client) acquireLock(ctx context.Context, submissionID uuid.UUID, owner string) (bool, error) {
	return c.rdb.SetNX(ctx, lockKey(submissionID), owner, c.cfg.LockTTL).Result()
}

func (c *Client) releaseLock(ctx context.Context, submissionID uuid.UUID, owner string) {
	if err := releaseScript.Run(ctx, c.rdb, []string{lockKey(submissionID)}, owner).Err(); err != nil && err != redis.Nil {
		c.logger.Warn("failed to release job lock", "submissionID", submissionID, "error", err)
	}
}

func (c *Client) markActive(ctx context.Context, submissionID uuid.UUID, attempt int) {
	err := c.rdb.HSet(ctx, jobKey(submissionID), map[string]interface{}{
		"status":   string(domain.JobActive),
		"attempts": attempt,
	}).Err()
	if err != nil {
		c.logger.Warn("failed to mark job active", "submissionID", submissionID, "error", err)
	}
}

func (c *Client) markCompleted(ctx context.Context, submissionID uuid.UUID) {
	c.finishJob(ctx, submissionID, domain.JobCompleted, "", completedKey, completedHistoryLen)
}

func (c *Client) markFailed(ctx context.Context, submissionID uuid.UUID, lastError string) {
	c.finishJob(ctx, submissionID, domain.JobFailed, lastError, failedKey, failedHistoryLen)
}

func (c *Client) finishJob(ctx context.Context, submissionID uuid.UUID, status domain.JobStatus, lastError, historyKey string, historyLen int64) {
	now := time.Now()
	fields, err := c.rdb.HGetAll(ctx, jobKey(submissionID)).Result()
	if err != nil {
		c.logger.Warn("failed to load job for finish", "submissionID", submissionID, "error", err)
		fields = map[string]string{}
	}
	job := parseJob(submissionID, fields)
	job.Status = status
	job.LastError = lastError
	job.FinishedAt = now

	encoded, err := json.Marshal(job)
	if err != nil {
		c.logger.Error("failed to encode job history entry", "submissionID", submissionID, "error", err)
		return
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(submissionID), map[string]interface{}{
		"status":     string(status),
		"lastError":  lastError,
		"finishedAt": now.Format(time.RFC3339Nano),
	})
	pipe.LPush(ctx, historyKey, encoded)
	pipe.LTrim(ctx, historyKey, 0, historyLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to finish job", "submissionID", submissionID, "error", err)
	}
}

// scheduleRetry records the failure and parks the job in the delayed set
// until readyAt.
func (c *Client) scheduleRetry(ctx context.Context, submissionID uuid.UUID, lastError string, readyAt time.Time) {
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(submissionID), map[string]interface{}{
		"status":    string(domain.JobQueued),
		"lastError": lastError,
	})
	pipe.ZAdd(ctx, delayedKey, &redis.Z{Score: float64(readyAt.UnixNano()), Member: submissionID.String()})
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to schedule retry", "submissionID", submissionID, "error", err)
	}
}

func jobKey(submissionID uuid.UUID) string {
	return jobKeyPrefix + submissionID.String()
}

func lockKey(submissionID uuid.UUID) string {
	return lockKeyPrefix + submissionID.String()
}

func parseJob(submissionID uuid.UUID, fields map[string]string) domain.GradingJob {
	job := domain.GradingJob{
		SubmissionID: submissionID,
		Status:       domain.JobStatus(fields["status"]),
		LastError:    fields["lastError"],
	}
	job.Attempts, _ = strconv.Atoi(fields["attempts"])
	if t, err := time.Parse(time.RFC3339Nano, fields["enqueuedAt"]); err == nil {
		job.EnqueuedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["finishedAt"]); err == nil {
		job.FinishedAt = t
	}
	return job
}
