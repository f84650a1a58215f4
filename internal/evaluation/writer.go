// Package evaluation owns the durable verdict table: idempotent writes keyed
// by (submission_id, question_id, judge_id) and the enriched listings served
// to the review UI.
package evaluation

import (
	"fmt"
	"time"

	"github.com/ocx/judgeflow/internal/store"
)

// WriteStore is the slice of the store the writer needs.
type WriteStore interface {
	FindEvaluation(submissionID, questionID, judgeID string) (*store.EvaluationRow, error)
	InsertEvaluation(row store.EvaluationRow) error
	UpdateEvaluation(id string, patch map[string]interface{}) error
}

// Writer persists evaluations idempotently. Re-running a job that already
// produced an identical evaluation leaves the table untouched.
type Writer struct {
	store WriteStore
}

// NewWriter creates a writer over the given store.
func NewWriter(s WriteStore) *Writer {
	return &Writer{store: s}
}

// Upsert writes one evaluation on its unique key. A fresh key inserts; an
// existing row is patched with only the fields that actually changed, plus
// updated_at. Identical payloads are a no-op.
func (w *Writer) Upsert(row store.EvaluationRow) error {
	existing, err := w.store.FindEvaluation(row.SubmissionID, row.QuestionID, row.JudgeID)
	if err != nil {
		return fmt.Errorf("upsert evaluation: %w", err)
	}

	if existing == nil {
		if row.CreatedAt == "" {
			row.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		return w.store.InsertEvaluation(row)
	}

	changes := map[string]interface{}{}
	if row.Verdict != existing.Verdict {
		changes["verdict"] = row.Verdict
	}
	if row.Reasoning != existing.Reasoning {
		changes["reasoning"] = row.Reasoning
	}
	if row.ReasoningSimhash != existing.ReasoningSimhash {
		changes["reasoning_simhash"] = row.ReasoningSimhash
	}
	if row.QueueID != "" && row.QueueID != existing.QueueID {
		changes["queue_id"] = row.QueueID
	}
	if len(changes) == 0 {
		return nil
	}

	changes["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return w.store.UpdateEvaluation(existing.ID, changes)
}
