package ingest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/fingerprint"
	"github.com/ocx/judgeflow/internal/store"
)

type fakeIngestStore struct {
	batches [][]store.SubmissionRow
	err     error
}

func (f *fakeIngestStore) UpsertSubmissions(rows []store.SubmissionRow) error {
	if f.err != nil {
		return f.err
	}
	batch := make([]store.SubmissionRow, len(rows))
	copy(batch, rows)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeIngestStore) allRows() []store.SubmissionRow {
	var all []store.SubmissionRow
	for _, batch := range f.batches {
		all = append(all, batch...)
	}
	return all
}

func sampleSubmission(id string) Submission {
	return Submission{
		ID:             id,
		QueueID:        "queue-a",
		LabelingTaskID: "task-1",
		CreatedAt:      1756000000,
		Questions: []store.QuestionEntry{
			{"id": "q1", "questionText": "Is the summary faithful?"},
		},
		Answers: map[string]json.RawMessage{
			"q1": json.RawMessage(`{"choice":"yes","reasoning":"covers all points"}`),
		},
	}
}

func TestIngestStoresFingerprintedRows(t *testing.T) {
	fake := &fakeIngestStore{}
	ing := NewIngester(fake, 100)

	uploaded, err := ing.Ingest([]Submission{sampleSubmission("s1")})
	require.NoError(t, err)
	assert.Equal(t, 1, uploaded)

	rows := fake.allRows()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "s1", row.ID)
	assert.Equal(t, "queue-a", row.QueueID)
	require.NotNil(t, row.AnswerSimhash)
	require.NotNil(t, row.SimhashBucket)
	assert.Equal(t, fingerprint.Bucket(*row.AnswerSimhash), *row.SimhashBucket)

	var data store.SubmissionData
	require.NoError(t, json.Unmarshal([]byte(row.Data), &data))
	assert.Len(t, data.Questions, 1)
	assert.Contains(t, data.Answers, "q1")
}

func TestIngestEmptyBatchIsValidationError(t *testing.T) {
	ing := NewIngester(&fakeIngestStore{}, 100)

	_, err := ing.Ingest(nil)
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}

func TestIngestMissingIDIsValidationError(t *testing.T) {
	ing := NewIngester(&fakeIngestStore{}, 100)

	sub := sampleSubmission("")
	_, err := ing.Ingest([]Submission{sub})
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}

func TestIngestMissingQueueIDIsValidationError(t *testing.T) {
	ing := NewIngester(&fakeIngestStore{}, 100)

	sub := sampleSubmission("s1")
	sub.QueueID = ""
	_, err := ing.Ingest([]Submission{sub})
	require.Error(t, err)
	assert.True(t, fault.IsValidation(err))
}

func TestIngestEmptyAnswersLandWithoutFingerprint(t *testing.T) {
	fake := &fakeIngestStore{}
	ing := NewIngester(fake, 100)

	sub := sampleSubmission("s1")
	sub.Answers = map[string]json.RawMessage{}

	uploaded, err := ing.Ingest([]Submission{sub})
	require.NoError(t, err)
	assert.Equal(t, 1, uploaded)

	rows := fake.allRows()
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].AnswerSimhash)
	assert.Nil(t, rows[0].SimhashBucket)
}

func TestIngestSplitsIntoBatches(t *testing.T) {
	fake := &fakeIngestStore{}
	ing := NewIngester(fake, 2)

	var batch []Submission
	for i := 0; i < 5; i++ {
		batch = append(batch, sampleSubmission(fmt.Sprintf("s%d", i)))
	}

	uploaded, err := ing.Ingest(batch)
	require.NoError(t, err)
	assert.Equal(t, 5, uploaded)
	require.Len(t, fake.batches, 3)
	assert.Len(t, fake.batches[0], 2)
	assert.Len(t, fake.batches[1], 2)
	assert.Len(t, fake.batches[2], 1)
}

func TestIngestFingerprintIgnoresMetadataFields(t *testing.T) {
	fake := &fakeIngestStore{}
	ing := NewIngester(fake, 100)

	with := sampleSubmission("s1")
	with.Answers = map[string]json.RawMessage{
		"q1": json.RawMessage(`{"choice":"yes","reasoning":"covers all points","annotator":"u-77","elapsed_ms":4120}`),
	}

	_, err := ing.Ingest([]Submission{with, sampleSubmission("s2")})
	require.NoError(t, err)

	rows := fake.allRows()
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].AnswerSimhash)
	require.NotNil(t, rows[1].AnswerSimhash)
	assert.Equal(t, *rows[1].AnswerSimhash, *rows[0].AnswerSimhash)
}

func TestIngestDeterministicFingerprint(t *testing.T) {
	fake := &fakeIngestStore{}
	ing := NewIngester(fake, 100)

	_, err := ing.Ingest([]Submission{sampleSubmission("s1"), sampleSubmission("s2")})
	require.NoError(t, err)

	rows := fake.allRows()
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].AnswerSimhash)
	require.NotNil(t, rows[1].AnswerSimhash)
	assert.Equal(t, *rows[0].AnswerSimhash, *rows[1].AnswerSimhash)
}
