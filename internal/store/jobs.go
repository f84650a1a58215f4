package store

import (
	"fmt"
	"time"
)

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// InsertJobs inserts a batch of pending jobs.
func (sc *Client) InsertJobs(rows []JobRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, _, err := sc.client.From(TableJobs).
		Insert(rows, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert jobs: %w", err)
	}
	return nil
}

// PendingJobs returns up to limit jobs still waiting to be claimed.
func (sc *Client) PendingJobs(limit int) ([]JobRow, error) {
	var rows []JobRow
	_, err := sc.client.From(TableJobs).
		Select("*", "", false).
		Eq("status", JobPending).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetch pending jobs: %w", err)
	}
	return rows, nil
}

// ClaimJobs transitions the given jobs to running. The update is gated on
// status='pending', so a job already claimed by a concurrent worker is not
// returned; callers must process only the rows they get back.
func (sc *Client) ClaimJobs(ids []string) ([]JobRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	patch := map[string]interface{}{
		"status":     JobRunning,
		"updated_at": nowUTC(),
	}
	var claimed []JobRow
	_, err := sc.client.From(TableJobs).
		Update(patch, "representation", "").
		In("id", ids).
		Eq("status", JobPending).
		ExecuteTo(&claimed)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	return claimed, nil
}

// MarkJobDone transitions a job to its terminal success state.
func (sc *Client) MarkJobDone(id string) error {
	patch := map[string]interface{}{
		"status":     JobDone,
		"updated_at": nowUTC(),
	}
	_, _, err := sc.client.From(TableJobs).
		Update(patch, "minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	return nil
}

// RecordJobFailure persists a failed run: bumps attempts, stores the error
// string, and either requeues the job or fails it terminally.
func (sc *Client) RecordJobFailure(id, status string, attempts int, lastError string) error {
	patch := map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": lastError,
		"updated_at": nowUTC(),
	}
	_, _, err := sc.client.From(TableJobs).
		Update(patch, "minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("record job failure: %w", err)
	}
	return nil
}

// CountJobs counts a queue's jobs, optionally filtered to one status.
func (sc *Client) CountJobs(queueID, status string) (int64, error) {
	filters := map[string]string{"queue_id": queueID}
	if status != "" {
		filters["status"] = status
	}
	return sc.CountRows(TableJobs, filters)
}

// RequeueStale moves running jobs whose updated_at predates the threshold
// back to pending, so orphans left by a crashed worker get re-claimed.
// Returns the number of jobs requeued.
func (sc *Client) RequeueStale(olderThan time.Time) (int, error) {
	patch := map[string]interface{}{
		"status":     JobPending,
		"updated_at": nowUTC(),
	}
	var requeued []struct {
		ID string `json:"id"`
	}
	_, err := sc.client.From(TableJobs).
		Update(patch, "representation", "").
		Eq("status", JobRunning).
		Lt("updated_at", olderThan.UTC().Format(time.RFC3339)).
		ExecuteTo(&requeued)
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return len(requeued), nil
}
