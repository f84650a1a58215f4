// Package ingest accepts bulk submission uploads, fingerprints their answer
// text, and lands them in the store.
package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/fingerprint"
	"github.com/ocx/judgeflow/internal/store"
)

var ingestLog = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)

// Store is the slice of the store the ingester needs.
type Store interface {
	UpsertSubmissions(rows []store.SubmissionRow) error
}

// Submission is the upload wire shape. Questions and answers arrive
// structured and are serialized into the row's data blob.
type Submission struct {
	ID             string                     `json:"id"`
	QueueID        string                     `json:"queue_id"`
	LabelingTaskID string                     `json:"labeling_task_id"`
	CreatedAt      int64                      `json:"created_at"`
	Questions      []store.QuestionEntry      `json:"questions"`
	Answers        map[string]json.RawMessage `json:"answers"`
	Attachments    []interface{}              `json:"attachments,omitempty"`
}

// Ingester validates, fingerprints, and batch-upserts submissions.
type Ingester struct {
	store     Store
	batchSize int
}

// NewIngester creates an ingester upserting batchSize rows at a time.
func NewIngester(s Store, batchSize int) *Ingester {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Ingester{store: s, batchSize: batchSize}
}

// Ingest stores a batch of submissions, upserting on id, and returns the
// number uploaded. An empty batch or a malformed entry is a validation
// error. Fingerprint failures are swallowed; the row lands with null
// fingerprint fields.
func (i *Ingester) Ingest(batch []Submission) (int, error) {
	if len(batch) == 0 {
		return 0, fault.Validation("empty submission batch")
	}

	rows := make([]store.SubmissionRow, 0, len(batch))
	for idx, sub := range batch {
		if sub.ID == "" {
			return 0, fault.Validation("submission %d: missing id", idx)
		}
		if sub.QueueID == "" {
			return 0, fault.Validation("submission %s: missing queue_id", sub.ID)
		}

		blob, err := json.Marshal(map[string]interface{}{
			"questions": sub.Questions,
			"answers":   sub.Answers,
		})
		if err != nil {
			return 0, fault.Validation("submission %s: unserializable data", sub.ID)
		}

		simhash, bucket := fingerprintAnswers(sub.ID, sub.Answers)
		rows = append(rows, store.SubmissionRow{
			ID:             sub.ID,
			QueueID:        sub.QueueID,
			LabelingTaskID: sub.LabelingTaskID,
			CreatedAt:      sub.CreatedAt,
			Data:           string(blob),
			AnswerSimhash:  simhash,
			SimhashBucket:  bucket,
			Attachments:    sub.Attachments,
		})
	}

	uploaded := 0
	for start := 0; start < len(rows); start += i.batchSize {
		end := start + i.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := i.store.UpsertSubmissions(rows[start:end]); err != nil {
			return uploaded, fmt.Errorf("ingest batch %d..%d: %w", start, end, err)
		}
		uploaded += end - start
	}
	return uploaded, nil
}

// fingerprintAnswers computes the simhash and bucket of a submission's
// flattened answer text. Any failure leaves both fields null; the
// submission is stored regardless.
func fingerprintAnswers(id string, answers map[string]json.RawMessage) (simhash *int64, bucket *uint16) {
	defer func() {
		if r := recover(); r != nil {
			ingestLog.Printf("fingerprint failed for submission %s, storing without: %v", id, r)
			simhash, bucket = nil, nil
		}
	}()

	text := answerText(answers)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sh := fingerprint.SimHash(text)
	b := fingerprint.Bucket(sh)
	return &sh, &b
}

// answerText flattens answers in sorted key order so the fingerprint is
// deterministic across uploads. Only the choice and reasoning fields of
// object answers enter the fingerprint; other fields carry attachments,
// timestamps, and annotator metadata that would defeat near-duplicate
// matching.
func answerText(answers map[string]json.RawMessage) string {
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if part := fingerprintPart(answers[key]); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func fingerprintPart(raw json.RawMessage) string {
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil && asMap != nil {
		parts := make([]string, 0, 2)
		for _, key := range []string{"choice", "reasoning"} {
			if s := fieldText(asMap[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return store.AnswerText(raw)
}

func fieldText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
