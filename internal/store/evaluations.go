package store

import "fmt"

// FindEvaluation looks up the evaluation identified by the unique
// (submission_id, question_id, judge_id) key. Returns nil when absent.
func (sc *Client) FindEvaluation(submissionID, questionID, judgeID string) (*EvaluationRow, error) {
	var rows []EvaluationRow
	_, err := sc.client.From(TableEvaluations).
		Select("id,verdict,reasoning,reasoning_simhash,queue_id,created_at", "", false).
		Eq("submission_id", submissionID).
		Eq("question_id", questionID).
		Eq("judge_id", judgeID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("find evaluation: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertEvaluation inserts a fresh evaluation row.
func (sc *Client) InsertEvaluation(row EvaluationRow) error {
	_, _, err := sc.client.From(TableEvaluations).
		Insert(row, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// UpdateEvaluation patches an existing evaluation row by id.
func (sc *Client) UpdateEvaluation(id string, patch map[string]interface{}) error {
	_, _, err := sc.client.From(TableEvaluations).
		Update(patch, "minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	return nil
}

// EvaluationFilter narrows evaluation listings. Empty fields are skipped.
type EvaluationFilter struct {
	SubmissionIDs []string
	JudgeIDs      []string
	QuestionIDs   []string
	Verdict       string
}

// ListEvaluations returns one page of evaluations plus the exact total
// matching the filter.
func (sc *Client) ListEvaluations(filter EvaluationFilter, offset, limit int) ([]EvaluationRow, int64, error) {
	query := sc.client.From(TableEvaluations).Select("*", "exact", false)
	if filter.SubmissionIDs != nil {
		query = query.In("submission_id", filter.SubmissionIDs)
	}
	if len(filter.JudgeIDs) > 0 {
		query = query.In("judge_id", filter.JudgeIDs)
	}
	if len(filter.QuestionIDs) > 0 {
		query = query.In("question_id", filter.QuestionIDs)
	}
	if filter.Verdict != "" {
		query = query.Eq("verdict", filter.Verdict)
	}

	var rows []EvaluationRow
	count, err := query.Range(offset, offset+limit-1, "").ExecuteTo(&rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}
	return rows, count, nil
}

// CountEvaluations counts evaluations matching the filter.
func (sc *Client) CountEvaluations(filter EvaluationFilter) (int64, error) {
	query := sc.client.From(TableEvaluations).Select("id", "exact", true)
	if filter.SubmissionIDs != nil {
		query = query.In("submission_id", filter.SubmissionIDs)
	}
	if len(filter.JudgeIDs) > 0 {
		query = query.In("judge_id", filter.JudgeIDs)
	}
	if len(filter.QuestionIDs) > 0 {
		query = query.In("question_id", filter.QuestionIDs)
	}
	if filter.Verdict != "" {
		query = query.Eq("verdict", filter.Verdict)
	}
	_, count, err := query.Execute()
	if err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return count, nil
}
