package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Job statuses. Transitions are monotonic:
// pending → running → {done | pending (retry) | failed}.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Verdict values a judge may return.
const (
	VerdictPass         = "pass"
	VerdictFail         = "fail"
	VerdictInconclusive = "inconclusive"
)

// SubmissionRow is one human-labeled task submission. Data is the opaque
// JSON string holding questions and answers; it is immutable once written
// except for the attachments list.
type SubmissionRow struct {
	ID             string        `json:"id"`
	QueueID        string        `json:"queue_id"`
	LabelingTaskID string        `json:"labeling_task_id"`
	CreatedAt      int64         `json:"created_at"`
	Data           string        `json:"data"`
	AnswerSimhash  *int64        `json:"answer_simhash"`
	SimhashBucket  *uint16       `json:"simhash_bucket"`
	Attachments    []interface{} `json:"attachments,omitempty"`
}

// SubmissionSlim is the id+data projection used for paging.
type SubmissionSlim struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// JudgeRow is a configured judge: a system prompt bound to a model and,
// optionally, an explicit provider override.
type JudgeRow struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
	Model        string `json:"model"`
	Active       bool   `json:"active"`
	Provider     string `json:"provider,omitempty"`
}

// AssignmentRow declares that a judge evaluates a question for every
// submission in a queue.
type AssignmentRow struct {
	ID         string `json:"id,omitempty"`
	QueueID    string `json:"queue_id"`
	QuestionID string `json:"question_id"`
	JudgeID    string `json:"judge_id"`
}

// JobRow is one unit of scheduled work: a (submission, question, judge)
// evaluation with retry metadata. SubmissionData snapshots the submission
// at enqueue time so execution is independent of later edits.
type JobRow struct {
	ID             string          `json:"id"`
	SubmissionID   string          `json:"submission_id"`
	SubmissionData json.RawMessage `json:"submission_data"`
	QuestionID     string          `json:"question_id"`
	JudgeID        string          `json:"judge_id"`
	QueueID        string          `json:"queue_id"`
	Status         string          `json:"status"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
}

// EvaluationRow is the durable verdict of one judge for one
// (submission, question) pair. Unique on (submission_id, question_id,
// judge_id); writes are upserts on that key.
type EvaluationRow struct {
	ID               string `json:"id,omitempty"`
	SubmissionID     string `json:"submission_id"`
	QuestionID       string `json:"question_id"`
	JudgeID          string `json:"judge_id"`
	QueueID          string `json:"queue_id,omitempty"`
	Verdict          string `json:"verdict"`
	Reasoning        string `json:"reasoning"`
	ReasoningSimhash int64  `json:"reasoning_simhash"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// SubmissionData is the in-memory shape of a submission's data blob.
// Storage stays permissive: question entries may be {id, ...} or wrapped as
// {data: {id, ...}}, and answers may be scalars or objects.
type SubmissionData struct {
	Questions []QuestionEntry            `json:"questions"`
	Answers   map[string]json.RawMessage `json:"answers"`
}

// DecodeSubmissionData parses a submission data blob.
func DecodeSubmissionData(raw []byte) (SubmissionData, error) {
	var data SubmissionData
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("decode submission data: %w", err)
	}
	return data, nil
}

// Question finds a question entry by id, unwrapping the nested {data: ...}
// shape when present. Returns nil when absent.
func (d SubmissionData) Question(questionID string) QuestionEntry {
	for _, entry := range d.Questions {
		fields := entry.Fields()
		if id, _ := fields["id"].(string); id == questionID {
			return fields
		}
	}
	return nil
}

// HasQuestion reports whether the submission carries questionID either as
// an answer key or as a question entry. The materializer uses this to skip
// jobs the runner would no-op on anyway.
func (d SubmissionData) HasQuestion(questionID string) bool {
	if _, ok := d.Answers[questionID]; ok {
		return true
	}
	return d.Question(questionID) != nil
}

// QuestionEntry is one entry of data.questions, kept as a loose map.
type QuestionEntry map[string]interface{}

// Fields returns the entry's field map, unwrapping {data: {...}}.
func (q QuestionEntry) Fields() QuestionEntry {
	if inner, ok := q["data"].(map[string]interface{}); ok {
		return inner
	}
	return q
}

// Text returns the question text: the first non-empty of questionText,
// question_text, or text, else the stringified entry.
func (q QuestionEntry) Text() string {
	for _, key := range []string{"questionText", "question_text", "text"} {
		if v, ok := q[key].(string); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("%v", map[string]interface{}(q))
}

// AnswerText flattens an answer value into the text judged and
// fingerprinted. Object answers contribute their values with choice and
// reasoning first and the remaining keys in sorted order (Go maps have no
// insertion order to preserve); scalars contribute their string form.
func AnswerText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil && asMap != nil {
		parts := make([]string, 0, len(asMap))
		for _, key := range []string{"choice", "reasoning"} {
			if v, ok := asMap[key]; ok {
				parts = append(parts, stringify(v))
			}
		}
		rest := make([]string, 0, len(asMap))
		for key := range asMap {
			if key != "choice" && key != "reasoning" {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			parts = append(parts, stringify(asMap[key]))
		}
		return strings.Join(parts, " ")
	}

	var scalar interface{}
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return stringify(scalar)
	}
	return string(raw)
}

// AnswerEmpty reports whether an answer value carries no substance: JSON
// null, an empty string, an empty object or array, false, or zero. Judges
// skip such answers rather than rule on them.
func AnswerEmpty(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case map[string]interface{}:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
