// Package queue turns a queue's assignments into durable judge jobs and
// answers queue-level catalog questions.
package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ocx/judgeflow/internal/store"
)

var queueLog = log.New(log.Writer(), "[QUEUE] ", log.LstdFlags)

// Store is the slice of the store the materializer needs.
type Store interface {
	ListAssignments(queueID string) ([]store.AssignmentRow, error)
	PageSubmissions(queueID string, offset, limit int) ([]store.SubmissionSlim, error)
	ListSubmissionData(queueID string) ([]store.SubmissionSlim, error)
	InsertJobs(rows []store.JobRow) error
}

// Result summarizes one materialization run.
type Result struct {
	Enqueued         int `json:"enqueued"`
	SubmissionsCount int `json:"submissions_count"`
	AssignmentsCount int `json:"assignments_count"`
}

// Materializer fans a queue's assignments out over its submissions.
type Materializer struct {
	store     Store
	pageSize  int
	batchSize int
}

// NewMaterializer creates a materializer paging submissions pageSize at a
// time and flushing jobs in batches of batchSize.
func NewMaterializer(s Store, pageSize, batchSize int) *Materializer {
	if pageSize < 1 {
		pageSize = 1000
	}
	if batchSize < 1 {
		batchSize = 500
	}
	return &Materializer{store: s, pageSize: pageSize, batchSize: batchSize}
}

// Enqueue creates one pending job per (submission, assignment) pair whose
// submission actually carries the assigned question. Each job snapshots the
// submission data so later edits cannot change what gets judged.
//
// Running Enqueue twice for the same queue double-enqueues; the evaluation
// writer deduplicates downstream, so only LLM spend is wasted.
func (m *Materializer) Enqueue(queueID string) (Result, error) {
	result := Result{}

	assignments, err := m.store.ListAssignments(queueID)
	if err != nil {
		return result, fmt.Errorf("enqueue %s: %w", queueID, err)
	}
	result.AssignmentsCount = len(assignments)
	if len(assignments) == 0 {
		return result, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var buffer []store.JobRow

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		if err := m.store.InsertJobs(buffer); err != nil {
			return fmt.Errorf("enqueue %s: %w", queueID, err)
		}
		result.Enqueued += len(buffer)
		buffer = buffer[:0]
		return nil
	}

	for offset := 0; ; offset += m.pageSize {
		page, err := m.store.PageSubmissions(queueID, offset, m.pageSize)
		if err != nil {
			return result, fmt.Errorf("enqueue %s: %w", queueID, err)
		}
		if len(page) == 0 {
			break
		}
		result.SubmissionsCount += len(page)

		for _, submission := range page {
			data, err := store.DecodeSubmissionData([]byte(submission.Data))
			if err != nil {
				queueLog.Printf("submission %s has undecodable data, skipping: %v", submission.ID, err)
				continue
			}
			for _, assignment := range assignments {
				if !data.HasQuestion(assignment.QuestionID) {
					continue
				}
				buffer = append(buffer, store.JobRow{
					ID:             uuid.NewString(),
					SubmissionID:   submission.ID,
					SubmissionData: json.RawMessage(submission.Data),
					QuestionID:     assignment.QuestionID,
					JudgeID:        assignment.JudgeID,
					QueueID:        queueID,
					Status:         store.JobPending,
					Attempts:       0,
					CreatedAt:      now,
					UpdatedAt:      now,
				})
				if len(buffer) >= m.batchSize {
					if err := flush(); err != nil {
						return result, err
					}
				}
			}
		}

		if len(page) < m.pageSize {
			break
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

// ListQuestions returns the sorted union of question ids carried by the
// queue's submissions, from both question entries and answer keys.
func ListQuestions(s Store, queueID string) ([]string, error) {
	rows, err := s.ListSubmissionData(queueID)
	if err != nil {
		return nil, fmt.Errorf("list questions %s: %w", queueID, err)
	}

	seen := map[string]bool{}
	for _, row := range rows {
		data, err := store.DecodeSubmissionData([]byte(row.Data))
		if err != nil {
			queueLog.Printf("submission %s has undecodable data, skipping: %v", row.ID, err)
			continue
		}
		for _, entry := range data.Questions {
			if id, _ := entry.Fields()["id"].(string); id != "" {
				seen[id] = true
			}
		}
		for id := range data.Answers {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
