// Package analytics computes the dashboard summary: coarse table counts and
// the recently active queues.
package analytics

import (
	"log"

	"github.com/ocx/judgeflow/internal/store"
)

const (
	// recentScan bounds how many of the newest submissions are scanned to
	// discover recently active queues.
	recentScan = 250
	// recentCap caps the queues reported.
	recentCap = 15
)

var summaryLog = log.New(log.Writer(), "[ANALYTICS] ", log.LstdFlags)

// Store is the slice of the store the summary needs.
type Store interface {
	CountRows(table string, filters map[string]string) (int64, error)
	CountEvaluations(filter store.EvaluationFilter) (int64, error)
	RecentSubmissionQueues(limit int) ([]store.QueueStamp, error)
}

// QueueActivity is one recently active queue with its evaluation count.
type QueueActivity struct {
	QueueID     string `json:"queue_id"`
	Evaluations int64  `json:"evaluations"`
}

// Summary is the dashboard payload. Every figure degrades to zero rather
// than failing the whole endpoint.
type Summary struct {
	Submissions  int64           `json:"submissions"`
	Judges       int64           `json:"judges"`
	Evaluations  int64           `json:"evaluations"`
	Jobs         int64           `json:"jobs"`
	PassRate     float64         `json:"pass_rate"`
	RecentQueues []QueueActivity `json:"recent_queues"`
}

// Summarize builds the dashboard summary.
func Summarize(s Store) Summary {
	count := func(table string) int64 {
		n, err := s.CountRows(table, nil)
		if err != nil {
			summaryLog.Printf("count %s failed, reporting 0: %v", table, err)
			return 0
		}
		return n
	}

	summary := Summary{
		Submissions:  count(store.TableSubmissions),
		Judges:       count(store.TableJudges),
		Evaluations:  count(store.TableEvaluations),
		Jobs:         count(store.TableJobs),
		RecentQueues: []QueueActivity{},
	}

	if summary.Evaluations > 0 {
		passed, err := s.CountEvaluations(store.EvaluationFilter{Verdict: store.VerdictPass})
		if err != nil {
			summaryLog.Printf("pass count failed, reporting 0: %v", err)
		} else {
			summary.PassRate = float64(passed) / float64(summary.Evaluations)
		}
	}

	summary.RecentQueues = recentQueues(s)
	return summary
}

// recentQueues scans the newest submissions for distinct queue ids, newest
// first, and attaches each queue's evaluation count.
func recentQueues(s Store) []QueueActivity {
	stamps, err := s.RecentSubmissionQueues(recentScan)
	if err != nil {
		summaryLog.Printf("recent queues failed, reporting none: %v", err)
		return []QueueActivity{}
	}

	seen := map[string]bool{}
	queues := []QueueActivity{}
	for _, stamp := range stamps {
		if stamp.QueueID == "" || seen[stamp.QueueID] {
			continue
		}
		seen[stamp.QueueID] = true

		evaluations, err := s.CountRows(store.TableEvaluations, map[string]string{"queue_id": stamp.QueueID})
		if err != nil {
			summaryLog.Printf("evaluation count for queue %s failed, reporting 0: %v", stamp.QueueID, err)
			evaluations = 0
		}
		queues = append(queues, QueueActivity{QueueID: stamp.QueueID, Evaluations: evaluations})
		if len(queues) >= recentCap {
			break
		}
	}
	return queues
}
