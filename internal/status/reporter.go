// Package status reports queue progress: point-in-time job counts plus live
// streams that follow a run until it settles.
package status

import (
	"log"

	"github.com/ocx/judgeflow/internal/store"
)

var statusLog = log.New(log.Writer(), "[STATUS] ", log.LstdFlags)

// Store is the slice of the store the reporter needs.
type Store interface {
	CountJobs(queueID, status string) (int64, error)
	CountRows(table string, filters map[string]string) (int64, error)
}

// Counts holds per-status job totals for one queue.
type Counts struct {
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
	Done    int64 `json:"done"`
	Failed  int64 `json:"failed"`
}

// JobStatus is the progress snapshot served to clients.
type JobStatus struct {
	Counts Counts `json:"counts"`
	Total  int64  `json:"total"`
}

// Complete reports whether the run has settled: no work left in flight and
// at least one job was ever materialized.
func (s JobStatus) Complete() bool {
	return s.Counts.Pending+s.Counts.Running == 0 && s.Total > 0
}

// QueueDebug holds raw row counts for one queue across the three tables a
// run touches.
type QueueDebug struct {
	Submissions int64 `json:"submissions"`
	Assignments int64 `json:"assignments"`
	Jobs        int64 `json:"judge_jobs"`
}

// Reporter computes queue progress from store counts.
type Reporter struct {
	store Store
}

// NewReporter creates a reporter over the given store.
func NewReporter(s Store) *Reporter {
	return &Reporter{store: s}
}

// JobStatus returns per-status counts and the total for one queue. The
// first failing count aborts; callers decide whether to degrade.
func (r *Reporter) JobStatus(queueID string) (JobStatus, error) {
	var snapshot JobStatus

	total, err := r.store.CountJobs(queueID, "")
	if err != nil {
		return snapshot, err
	}
	snapshot.Total = total

	targets := []struct {
		status string
		dest   *int64
	}{
		{store.JobPending, &snapshot.Counts.Pending},
		{store.JobRunning, &snapshot.Counts.Running},
		{store.JobDone, &snapshot.Counts.Done},
		{store.JobFailed, &snapshot.Counts.Failed},
	}
	for _, t := range targets {
		n, err := r.store.CountJobs(queueID, t.status)
		if err != nil {
			return snapshot, err
		}
		*t.dest = n
	}
	return snapshot, nil
}

// QueueDebug returns raw per-table row counts for one queue. Individual
// count failures degrade to zero so the endpoint stays usable while the
// store is flaky.
func (r *Reporter) QueueDebug(queueID string) QueueDebug {
	filters := map[string]string{"queue_id": queueID}
	count := func(table string) int64 {
		n, err := r.store.CountRows(table, filters)
		if err != nil {
			statusLog.Printf("count %s failed, reporting 0: %v", table, err)
			return 0
		}
		return n
	}
	return QueueDebug{
		Submissions: count(store.TableSubmissions),
		Assignments: count(store.TableAssignments),
		Jobs:        count(store.TableJobs),
	}
}
