// Package worker polls the judge_jobs table, claims batches atomically, and
// dispatches them to LLM judges with bounded concurrency.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"github.com/ocx/judgeflow/internal/config"
	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/judge"
	"github.com/ocx/judgeflow/internal/provider"
	"github.com/ocx/judgeflow/internal/store"
)

// maxLocalTries bounds the in-memory retry loop of one job invocation.
// Persistence-level attempts are tracked separately on the job row.
const maxLocalTries = 10

// Store is the slice of the store the worker needs.
type Store interface {
	JudgesByID() (map[string]store.JudgeRow, error)
	PendingJobs(limit int) ([]store.JobRow, error)
	ClaimJobs(ids []string) ([]store.JobRow, error)
	MarkJobDone(id string) error
	RecordJobFailure(id, status string, attempts int, lastError string) error
	RequeueStale(olderThan time.Time) (int, error)
}

// EvaluationWriter persists one evaluation idempotently.
type EvaluationWriter interface {
	Upsert(row store.EvaluationRow) error
}

// JobRunner runs one judge against one submitted answer.
type JobRunner interface {
	RunSingle(ctx context.Context, submissionID string, data store.SubmissionData,
		questionID, judgeID string, judges map[string]store.JudgeRow) (*store.EvaluationRow, error)
}

// Worker is the long-running job loop. Multiple workers may run against the
// same store; the atomic pending→running claim keeps them from colliding.
type Worker struct {
	store   Store
	writer  EvaluationWriter
	metrics *Metrics
	logger  *log.Logger

	concurrency  int64
	batchSize    int
	pollInterval time.Duration
	judgeRefresh time.Duration
	staleAfter   time.Duration
	maxAttempts  int

	// Swapped whole on refresh; read-only within a poll cycle.
	mu     sync.RWMutex
	judges map[string]store.JudgeRow

	// Seams for tests; production wiring uses the real runner and env keys.
	newRunner func(clients map[string]provider.Client) JobRunner
	clients   func() map[string]provider.Client
}

// New creates a worker from settings.
func New(s Store, writer EvaluationWriter, cfg *config.Settings, metrics *Metrics) *Worker {
	return &Worker{
		store:        s,
		writer:       writer,
		metrics:      metrics,
		logger:       log.New(log.Writer(), "[WORKER] ", log.LstdFlags),
		concurrency:  int64(cfg.WorkerConcurrency),
		batchSize:    cfg.WorkerBatch,
		pollInterval: cfg.WorkerPollInterval,
		judgeRefresh: cfg.WorkerJudgeRefresh,
		staleAfter:   cfg.WorkerStaleAfter,
		maxAttempts:  cfg.MaxAttempts,
		judges:       map[string]store.JudgeRow{},
		newRunner: func(clients map[string]provider.Client) JobRunner {
			return judge.NewRunner(clients)
		},
		clients: provider.ClientsFromEnv,
	}
}

// Run loops until ctx is cancelled. Loop-level failures are logged and
// absorbed; the worker never terminates on its own.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("starting: concurrency=%d batch=%d poll=%s", w.concurrency, w.batchSize, w.pollInterval)

	var lastRefresh time.Time
	for {
		if ctx.Err() != nil {
			w.logger.Printf("stopping: %v", ctx.Err())
			return
		}

		if time.Since(lastRefresh) >= w.judgeRefresh || lastRefresh.IsZero() {
			w.refreshJudges()
			w.sweepStale()
			lastRefresh = time.Now()
		}

		processed, err := w.pollOnce(ctx)
		if err != nil {
			w.logger.Printf("poll cycle failed: %v", err)
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if processed == 0 {
			w.sleep(ctx, w.pollInterval)
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// refreshJudges swaps in a fresh catalog. On failure the previous catalog
// stays in service.
func (w *Worker) refreshJudges() {
	judges, err := w.store.JudgesByID()
	if err != nil {
		w.logger.Printf("judges refresh failed, keeping previous catalog: %v", err)
		return
	}
	w.mu.Lock()
	w.judges = judges
	w.mu.Unlock()
	w.logger.Printf("judges catalog refreshed: %d judges", len(judges))
}

func (w *Worker) catalog() map[string]store.JudgeRow {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.judges
}

// sweepStale returns orphaned running jobs to the queue. A worker that died
// mid-job leaves rows in running forever otherwise.
func (w *Worker) sweepStale() {
	if w.staleAfter <= 0 {
		return
	}
	n, err := w.store.RequeueStale(time.Now().Add(-w.staleAfter))
	if err != nil {
		w.logger.Printf("stale sweep failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Printf("requeued %d stale running jobs", n)
		if w.metrics != nil {
			w.metrics.StaleSwept.Add(float64(n))
		}
	}
}

// pollOnce claims one batch and dispatches it. Returns the number of jobs
// actually claimed.
func (w *Worker) pollOnce(ctx context.Context) (int, error) {
	pending, err := w.store.PendingJobs(w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]string, len(pending))
	for i, job := range pending {
		ids[i] = job.ID
	}
	claimed, err := w.store.ClaimJobs(ids)
	if err != nil {
		return 0, fmt.Errorf("claim: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}
	if w.metrics != nil {
		w.metrics.JobsClaimed.Add(float64(len(claimed)))
	}

	runner := w.newRunner(w.clients())
	judges := w.catalog()

	sem := semaphore.NewWeighted(w.concurrency)
	var wg sync.WaitGroup
	for _, job := range claimed {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(job store.JobRow) {
			defer wg.Done()
			defer sem.Release(1)
			w.processJob(ctx, runner, judges, job)
		}(job)
	}
	wg.Wait()
	return len(claimed), nil
}

// processJob runs one claimed job end to end: judge call with local retries,
// evaluation write, then the terminal status transition.
func (w *Worker) processJob(ctx context.Context, runner JobRunner, judges map[string]store.JudgeRow, job store.JobRow) {
	started := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.JobDuration.Observe(time.Since(started).Seconds())
		}
	}()

	data, err := store.DecodeSubmissionData(job.SubmissionData)
	if err != nil {
		w.failJob(job, fmt.Errorf("bad submission snapshot: %w", err))
		return
	}

	var row *store.EvaluationRow
	operation := func() error {
		result, err := runner.RunSingle(ctx, job.SubmissionID, data, job.QuestionID, job.JudgeID, judges)
		if err != nil {
			if !fault.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		row = result
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxLocalTries-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		w.failJob(job, err)
		return
	}

	outcome := "noop"
	if row != nil {
		// The queue binding lives on the job; the runner never sees it.
		row.QueueID = job.QueueID
		if err := w.writer.Upsert(*row); err != nil {
			w.failJob(job, fmt.Errorf("persist evaluation: %w", err))
			return
		}
		outcome = "evaluated"
	}

	if err := w.store.MarkJobDone(job.ID); err != nil {
		w.logger.Printf("job %s evaluated but not marked done (will be re-run and deduplicated): %v", job.ID, err)
		return
	}
	if w.metrics != nil {
		w.metrics.JobsDone.WithLabelValues(outcome).Inc()
	}
}

// failJob bumps attempts and either requeues the job or fails it terminally.
func (w *Worker) failJob(job store.JobRow, cause error) {
	attempts := job.Attempts + 1
	status := store.JobPending
	if attempts >= w.maxAttempts {
		status = store.JobFailed
	}

	w.logger.Printf("job %s attempt %d/%d failed (%s): %v", job.ID, attempts, w.maxAttempts, status, cause)
	if err := w.store.RecordJobFailure(job.ID, status, attempts, cause.Error()); err != nil {
		w.logger.Printf("job %s failure not persisted: %v", job.ID, err)
		return
	}
	if w.metrics == nil {
		return
	}
	if status == store.JobFailed {
		w.metrics.JobsFailed.Inc()
	} else {
		w.metrics.JobsRequeued.Inc()
	}
}
