package evaluation

import (
	"fmt"
	"log"

	"github.com/ocx/judgeflow/internal/store"
)

var listLog = log.New(log.Writer(), "[EVALUATIONS] ", log.LstdFlags)

// ListStore is the slice of the store the lister needs.
type ListStore interface {
	ListSubmissionIDs(queueID string) ([]string, error)
	ListEvaluations(filter store.EvaluationFilter, offset, limit int) ([]store.EvaluationRow, int64, error)
	CountEvaluations(filter store.EvaluationFilter) (int64, error)
	JudgeNames(ids []string) (map[string]string, error)
}

// Query narrows an evaluations listing. A queue id is resolved to the
// queue's submission ids before filtering.
type Query struct {
	QueueID     string
	JudgeIDs    []string
	QuestionIDs []string
	Verdict     string
	Page        int
	Limit       int
}

// Row is an evaluation enriched with its judge's display name.
type Row struct {
	store.EvaluationRow
	JudgeName string `json:"judge_name,omitempty"`
}

// Page is one page of evaluations plus aggregate pass figures.
type Page struct {
	Evaluations []Row   `json:"evaluations"`
	Total       int64   `json:"total"`
	PassCount   int64   `json:"pass_count"`
	PassRate    float64 `json:"pass_rate"`
}

// Lister serves filtered, name-enriched evaluation pages.
type Lister struct {
	store ListStore
}

// NewLister creates a lister over the given store.
func NewLister(s ListStore) *Lister {
	return &Lister{store: s}
}

// List returns one page of evaluations matching the query. A queue with no
// submissions yields an empty page rather than an unfiltered scan. Judge
// name lookup failures degrade to un-enriched rows; pass-count failures
// degrade to zero.
func (l *Lister) List(q Query) (Page, error) {
	page := Page{Evaluations: []Row{}}

	filter := store.EvaluationFilter{
		JudgeIDs:    q.JudgeIDs,
		QuestionIDs: q.QuestionIDs,
		Verdict:     q.Verdict,
	}
	if q.QueueID != "" {
		ids, err := l.store.ListSubmissionIDs(q.QueueID)
		if err != nil {
			return page, fmt.Errorf("resolve queue %s: %w", q.QueueID, err)
		}
		if len(ids) == 0 {
			return page, nil
		}
		filter.SubmissionIDs = ids
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	offset := (q.Page - 1) * q.Limit

	rows, total, err := l.store.ListEvaluations(filter, offset, q.Limit)
	if err != nil {
		return page, err
	}
	page.Total = total

	passFilter := filter
	passFilter.Verdict = store.VerdictPass
	passCount, err := l.store.CountEvaluations(passFilter)
	if err != nil {
		listLog.Printf("pass count failed, reporting 0: %v", err)
		passCount = 0
	}
	page.PassCount = passCount
	if total > 0 {
		page.PassRate = float64(passCount) / float64(total)
	}

	names := l.judgeNames(rows)
	for _, row := range rows {
		page.Evaluations = append(page.Evaluations, Row{
			EvaluationRow: row,
			JudgeName:     names[row.JudgeID],
		})
	}
	return page, nil
}

func (l *Lister) judgeNames(rows []store.EvaluationRow) map[string]string {
	seen := map[string]bool{}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.JudgeID != "" && !seen[row.JudgeID] {
			seen[row.JudgeID] = true
			ids = append(ids, row.JudgeID)
		}
	}
	names, err := l.store.JudgeNames(ids)
	if err != nil {
		listLog.Printf("judge name lookup failed, serving bare rows: %v", err)
		return map[string]string{}
	}
	return names
}
