package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

const promoteInterval = time.Second

// Handler processes one grading job. OnExhausted fires once when a job
// burns its last attempt, so the owning record can surface the failure.
type Handler interface {
	Handle(ctx context.Context, submissionID uuid.UUID) error
	OnExhausted(ctx context.Context, submissionID uuid.UUID, reason string)
}

// Pool runs a fixed set of in-process grading workers plus a promoter
// goroutine that moves due retries back onto the ready list. Stop drains:
// a worker mid-job finishes it before exiting.
type Pool struct {
	client     *Client
	handler    Handler
	workerRepo secondary.WorkerRepository
	cfg        *config.GradingConfig
	logger     primary.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(client *Client, handler Handler, workerRepo secondary.WorkerRepository, cfg *config.GradingConfig, logger primary.Logger) *Pool {
	return &Pool{
		client:     client,
		handler:    handler,
		workerRepo: workerRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	// Jobs stranded on the processing list by a previous run are
	// re-enqueued before any worker starts popping.
	if err := p.client.reclaimOrphans(ctx); err != nil {
		p.logger.Warn("failed to reclaim orphaned jobs", "error", err)
	}

	p.wg.Add(1)
	go p.runPromoter(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("grading-worker-%d-%s", i, uuid.NewString()[:8])
		p.wg.Add(1)
		go p.runWorker(ctx, workerID)
	}
	p.logger.Info("grading pool started", "workers", p.cfg.Workers)
}

func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("grading pool stopped")
}

func (p *Pool) runPromoter(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.client.promoteDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Warn("failed to promote delayed jobs", "error", err)
			}
		}
	}
}

func (p *Pool) runWorker(ctx context.Context, workerID string) {
	defer p.wg.Done()

	state := &workerState{info: domain.WorkerInfo{ID: workerID, StartedAt: time.Now()}}
	heartbeatDone := make(chan struct{})
	go p.runHeartbeat(ctx, state, heartbeatDone)
	defer func() { <-heartbeatDone }()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		submissionID, err := p.client.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Warn("dequeue failed", "worker", workerID, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		p.process(ctx, workerID, submissionID, state)
	}
}

func (p *Pool) runHeartbeat(ctx context.Context, state *workerState, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()

	p.saveHeartbeat(state)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.saveHeartbeat(state)
		}
	}
}

func (p *Pool) saveHeartbeat(state *workerState) {
	// Heartbeats survive shutdown cancellation just long enough to write.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info := state.snapshot()
	if err := p.workerRepo.SaveWorker(ctx, &info); err != nil {
		p.logger.Warn("failed to save worker heartbeat", "worker", info.ID, "error", err)
	}
}

func (p *Pool) process(ctx context.Context, workerID string, submissionID uuid.UUID, state *workerState) {
	acquired, err := p.client.acquireLock(ctx, submissionID, workerID)
	if err != nil {
		p.logger.Warn("failed to acquire job lock", "submissionID", submissionID, "error", err)
		return
	}
	if !acquired {
		// Another worker owns this submission right now; park the id so
		// a refreshed job record still gets its run once the lock clears.
		p.client.requeueLater(ctx, submissionID, p.cfg.BackoffBase)
		return
	}
	defer p.client.releaseLock(context.Background(), submissionID, workerID)

	job, err := p.client.Job(ctx, submissionID)
	if err != nil {
		p.logger.Warn("failed to load job record", "submissionID", submissionID, "error", err)
		return
	}
	attempt := 1
	if job != nil {
		attempt = job.Attempts + 1
	}
	p.client.markActive(ctx, submissionID, attempt)

	state.setBusy(true)
	handleErr := p.handler.Handle(ctx, submissionID)
	state.setBusy(false)
	state.incProcessed()

	// Bookkeeping writes use a fresh context so a shutdown that
	// interrupted the handler cannot also lose the job state.
	bkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch {
	case handleErr == nil:
		p.client.markCompleted(bkCtx, submissionID)
	case errors.Is(handleErr, ErrTerminal):
		p.logger.Error("grading job failed terminally", "submissionID", submissionID, "error", handleErr)
		p.client.markFailed(bkCtx, submissionID, handleErr.Error())
	case attempt >= p.cfg.MaxAttempts:
		p.logger.Error("grading job exhausted retries",
			"submissionID", submissionID, "attempts", attempt, "error", handleErr)
		p.client.markFailed(bkCtx, submissionID, handleErr.Error())
		p.handler.OnExhausted(bkCtx, submissionID, handleErr.Error())
	default:
		delay := Backoff(p.cfg.BackoffBase, attempt)
		p.logger.Warn("grading job failed, scheduling retry",
			"submissionID", submissionID, "attempt", attempt, "retryIn", delay, "error", handleErr)
		p.client.scheduleRetry(bkCtx, submissionID, handleErr.Error(), time.Now().Add(delay))
	}
	p.client.ack(bkCtx, submissionID)
}

// workerState guards the heartbeat record shared between a worker loop
// and its heartbeat goroutine.
type workerState struct {
	mu   sync.Mutex
	info domain.WorkerInfo
}

func (s *workerState) setBusy(busy bool) {
	s.mu.Lock()
	s.info.Busy = busy
	s.mu.Unlock()
}

func (s *workerState) incProcessed() {
	s.mu.Lock()
	s.info.JobsProcessed++
	s.mu.Unlock()
}

func (s *workerState) snapshot() domain.WorkerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := s.info
	info.LastHeartbeat = time.Now()
	return info
}
