package store

import (
	"fmt"
	"strconv"

	"github.com/ocx/judgeflow/internal/fault"
)

// UpsertSubmissions batch-upserts submissions on their primary key.
func (sc *Client) UpsertSubmissions(rows []SubmissionRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, _, err := sc.client.From(TableSubmissions).
		Upsert(rows, "id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert submissions: %w", err)
	}
	return nil
}

// PageSubmissions returns one page of id+data projections for a queue.
func (sc *Client) PageSubmissions(queueID string, offset, limit int) ([]SubmissionSlim, error) {
	var rows []SubmissionSlim
	_, err := sc.client.From(TableSubmissions).
		Select("id,data", "", false).
		Eq("queue_id", queueID).
		Range(offset, offset+limit-1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("page submissions: %w", err)
	}
	return rows, nil
}

// ListSubmissionIDs returns every submission id in a queue.
func (sc *Client) ListSubmissionIDs(queueID string) ([]string, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := sc.client.From(TableSubmissions).
		Select("id", "", false).
		Eq("queue_id", queueID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list submission ids: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// ListSubmissionData returns the data blobs of every submission in a queue.
func (sc *Client) ListSubmissionData(queueID string) ([]SubmissionSlim, error) {
	var rows []SubmissionSlim
	_, err := sc.client.From(TableSubmissions).
		Select("id,data", "", false).
		Eq("queue_id", queueID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list submission data: %w", err)
	}
	return rows, nil
}

// RecentSubmissionQueues returns (queue_id, created_at) pairs of the newest
// submissions, for the dashboard's recent-queues list.
func (sc *Client) RecentSubmissionQueues(limit int) ([]QueueStamp, error) {
	var rows []QueueStamp
	_, err := sc.client.From(TableSubmissions).
		Select("queue_id,created_at", "", false).
		Order("created_at", nil).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("recent submissions: %w", err)
	}
	return rows, nil
}

// QueueStamp pairs a queue id with a submission timestamp.
type QueueStamp struct {
	QueueID   string `json:"queue_id"`
	CreatedAt int64  `json:"created_at"`
}

// GetSubmission fetches one submission by id. Returns fault.ErrNotFound
// when absent.
func (sc *Client) GetSubmission(id string) (*SubmissionRow, error) {
	var rows []SubmissionRow
	_, err := sc.client.From(TableSubmissions).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if len(rows) == 0 {
		return nil, fault.ErrNotFound
	}
	return &rows[0], nil
}

// SubmissionsInBucket returns submissions whose fingerprint falls in one
// simhash bucket, the coarse candidate set for duplicate lookups.
func (sc *Client) SubmissionsInBucket(bucket uint16) ([]SubmissionRow, error) {
	var rows []SubmissionRow
	_, err := sc.client.From(TableSubmissions).
		Select("*", "", false).
		Eq("simhash_bucket", strconv.FormatUint(uint64(bucket), 10)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("bucket lookup: %w", err)
	}
	return rows, nil
}
