package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judgeflow/internal/config"
	"github.com/ocx/judgeflow/internal/provider"
	"github.com/ocx/judgeflow/internal/store"
)

type fakeWorkerStore struct {
	mu sync.Mutex

	judges  map[string]store.JudgeRow
	pending []store.JobRow
	claimed []store.JobRow

	done     []string
	failures []recordedFailure
	requeued int
}

type recordedFailure struct {
	id        string
	status    string
	attempts  int
	lastError string
}

func (f *fakeWorkerStore) JudgesByID() (map[string]store.JudgeRow, error) {
	return f.judges, nil
}

func (f *fakeWorkerStore) PendingJobs(int) ([]store.JobRow, error) {
	return f.pending, nil
}

func (f *fakeWorkerStore) ClaimJobs([]string) ([]store.JobRow, error) {
	return f.claimed, nil
}

func (f *fakeWorkerStore) MarkJobDone(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, id)
	return nil
}

func (f *fakeWorkerStore) RecordJobFailure(id, status string, attempts int, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, recordedFailure{id, status, attempts, lastError})
	return nil
}

func (f *fakeWorkerStore) RequeueStale(time.Time) (int, error) {
	return f.requeued, nil
}

type fakeWriter struct {
	mu   sync.Mutex
	rows []store.EvaluationRow
	err  error
}

func (f *fakeWriter) Upsert(row store.EvaluationRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type scriptedRunner struct {
	mu      sync.Mutex
	results []runnerResult
	calls   int
}

type runnerResult struct {
	row *store.EvaluationRow
	err error
}

func (s *scriptedRunner) RunSingle(context.Context, string, store.SubmissionData, string, string, map[string]store.JudgeRow) (*store.EvaluationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	s.calls++
	return result.row, result.err
}

func testWorker(s Store, writer EvaluationWriter, runner JobRunner) *Worker {
	cfg := &config.Settings{
		WorkerConcurrency:  2,
		WorkerBatch:        10,
		WorkerPollInterval: 10 * time.Millisecond,
		WorkerJudgeRefresh: time.Minute,
		WorkerStaleAfter:   15 * time.Minute,
		MaxAttempts:        3,
	}
	w := New(s, writer, cfg, nil)
	w.newRunner = func(map[string]provider.Client) JobRunner { return runner }
	w.clients = func() map[string]provider.Client { return nil }
	return w
}

func testJob(id string) store.JobRow {
	data, _ := json.Marshal(map[string]interface{}{
		"questions": []map[string]interface{}{{"id": "q1", "questionText": "ok?"}},
		"answers":   map[string]interface{}{"q1": "yes"},
	})
	return store.JobRow{
		ID:             id,
		SubmissionID:   "s1",
		SubmissionData: data,
		QuestionID:     "q1",
		JudgeID:        "j1",
		QueueID:        "queue-a",
		Status:         store.JobRunning,
	}
}

func TestProcessJobWritesEvaluationAndMarksDone(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{
		{row: &store.EvaluationRow{SubmissionID: "s1", QuestionID: "q1", JudgeID: "j1", Verdict: store.VerdictPass}},
	}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	require.Len(t, writer.rows, 1)
	assert.Equal(t, store.VerdictPass, writer.rows[0].Verdict)
	assert.Equal(t, []string{"job-1"}, fake.done)
	assert.Empty(t, fake.failures)
}

func TestProcessJobStampsQueueIDOnEvaluation(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{
		{row: &store.EvaluationRow{SubmissionID: "s1", QuestionID: "q1", JudgeID: "j1", Verdict: store.VerdictPass}},
	}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	require.Len(t, writer.rows, 1)
	assert.Equal(t, "queue-a", writer.rows[0].QueueID)
}

func TestProcessJobNoopStillMarksDone(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{{}}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	assert.Empty(t, writer.rows)
	assert.Equal(t, []string{"job-1"}, fake.done)
}

func TestProcessJobRetriesTransientThenSucceeds(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{
		{err: errors.New("429 too many requests")},
		{row: &store.EvaluationRow{SubmissionID: "s1", QuestionID: "q1", JudgeID: "j1", Verdict: store.VerdictFail}},
	}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	assert.Equal(t, 2, runner.calls)
	require.Len(t, writer.rows, 1)
	assert.Equal(t, []string{"job-1"}, fake.done)
	assert.Empty(t, fake.failures)
}

func TestProcessJobPermanentErrorFailsFast(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{
		{err: errors.New("invalid api key")},
	}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	assert.Equal(t, 1, runner.calls)
	require.Len(t, fake.failures, 1)
	failure := fake.failures[0]
	assert.Equal(t, "job-1", failure.id)
	assert.Equal(t, store.JobPending, failure.status)
	assert.Equal(t, 1, failure.attempts)
	assert.Contains(t, failure.lastError, "invalid api key")
	assert.Empty(t, fake.done)
}

func TestProcessJobFinalAttemptMarksFailed(t *testing.T) {
	fake := &fakeWorkerStore{}
	runner := &scriptedRunner{results: []runnerResult{
		{err: errors.New("invalid api key")},
	}}
	w := testWorker(fake, &fakeWriter{}, runner)

	job := testJob("job-1")
	job.Attempts = 2
	w.processJob(context.Background(), runner, nil, job)

	require.Len(t, fake.failures, 1)
	assert.Equal(t, store.JobFailed, fake.failures[0].status)
	assert.Equal(t, 3, fake.failures[0].attempts)
}

func TestProcessJobWriterFailureRequeues(t *testing.T) {
	fake := &fakeWorkerStore{}
	writer := &fakeWriter{err: errors.New("store down")}
	runner := &scriptedRunner{results: []runnerResult{
		{row: &store.EvaluationRow{SubmissionID: "s1", QuestionID: "q1", JudgeID: "j1"}},
	}}
	w := testWorker(fake, writer, runner)

	w.processJob(context.Background(), runner, nil, testJob("job-1"))

	require.Len(t, fake.failures, 1)
	assert.Equal(t, store.JobPending, fake.failures[0].status)
	assert.Empty(t, fake.done)
}

func TestProcessJobBadSnapshotFailsWithoutRunning(t *testing.T) {
	fake := &fakeWorkerStore{}
	runner := &scriptedRunner{results: []runnerResult{{}}}
	w := testWorker(fake, &fakeWriter{}, runner)

	job := testJob("job-1")
	job.SubmissionData = json.RawMessage("not json")
	w.processJob(context.Background(), runner, nil, job)

	assert.Zero(t, runner.calls)
	require.Len(t, fake.failures, 1)
	assert.Contains(t, fake.failures[0].lastError, "bad submission snapshot")
}

func TestPollOnceProcessesOnlyClaimedJobs(t *testing.T) {
	// The store hands back two pending jobs but only one survives the
	// atomic claim; the other went to a concurrent worker.
	fake := &fakeWorkerStore{
		pending: []store.JobRow{testJob("job-1"), testJob("job-2")},
		claimed: []store.JobRow{testJob("job-1")},
	}
	writer := &fakeWriter{}
	runner := &scriptedRunner{results: []runnerResult{{}}}
	w := testWorker(fake, writer, runner)

	processed, err := w.pollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"job-1"}, fake.done)
}

func TestPollOnceNoPendingIsIdle(t *testing.T) {
	fake := &fakeWorkerStore{}
	w := testWorker(fake, &fakeWriter{}, &scriptedRunner{results: []runnerResult{{}}})

	processed, err := w.pollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}
