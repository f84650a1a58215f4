package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judgeflow/internal/store"
)

type fakeWriteStore struct {
	existing *store.EvaluationRow
	findErr  error

	inserted  []store.EvaluationRow
	patchedID string
	patch     map[string]interface{}
}

func (f *fakeWriteStore) FindEvaluation(_, _, _ string) (*store.EvaluationRow, error) {
	return f.existing, f.findErr
}

func (f *fakeWriteStore) InsertEvaluation(row store.EvaluationRow) error {
	f.inserted = append(f.inserted, row)
	return nil
}

func (f *fakeWriteStore) UpdateEvaluation(id string, patch map[string]interface{}) error {
	f.patchedID = id
	f.patch = patch
	return nil
}

func payload() store.EvaluationRow {
	return store.EvaluationRow{
		SubmissionID:     "s1",
		QuestionID:       "q1",
		JudgeID:          "j1",
		QueueID:          "queue-a",
		Verdict:          store.VerdictPass,
		Reasoning:        "sound",
		ReasoningSimhash: 42,
	}
}

func TestUpsertInsertsWhenAbsent(t *testing.T) {
	fake := &fakeWriteStore{}
	writer := NewWriter(fake)

	require.NoError(t, writer.Upsert(payload()))
	require.Len(t, fake.inserted, 1)
	assert.Equal(t, store.VerdictPass, fake.inserted[0].Verdict)
	assert.NotEmpty(t, fake.inserted[0].CreatedAt)
	assert.Empty(t, fake.patchedID)
}

func TestUpsertKeepsCallerCreatedAt(t *testing.T) {
	fake := &fakeWriteStore{}
	writer := NewWriter(fake)

	row := payload()
	row.CreatedAt = "2026-01-01T00:00:00Z"
	require.NoError(t, writer.Upsert(row))
	require.Len(t, fake.inserted, 1)
	assert.Equal(t, "2026-01-01T00:00:00Z", fake.inserted[0].CreatedAt)
}

func TestUpsertIdenticalPayloadIsNoop(t *testing.T) {
	existing := payload()
	existing.ID = "e1"
	fake := &fakeWriteStore{existing: &existing}
	writer := NewWriter(fake)

	require.NoError(t, writer.Upsert(payload()))
	assert.Empty(t, fake.inserted)
	assert.Empty(t, fake.patchedID)
}

func TestUpsertPatchesOnlyChangedFields(t *testing.T) {
	existing := payload()
	existing.ID = "e1"
	existing.Verdict = store.VerdictFail
	fake := &fakeWriteStore{existing: &existing}
	writer := NewWriter(fake)

	require.NoError(t, writer.Upsert(payload()))
	assert.Equal(t, "e1", fake.patchedID)
	assert.Equal(t, store.VerdictPass, fake.patch["verdict"])
	assert.NotContains(t, fake.patch, "reasoning")
	assert.NotContains(t, fake.patch, "reasoning_simhash")
	assert.NotContains(t, fake.patch, "queue_id")
	assert.Contains(t, fake.patch, "updated_at")
}

func TestUpsertAddsQueueIDWhenDiffering(t *testing.T) {
	existing := payload()
	existing.ID = "e1"
	existing.QueueID = "queue-old"
	existing.Reasoning = "stale"
	fake := &fakeWriteStore{existing: &existing}
	writer := NewWriter(fake)

	require.NoError(t, writer.Upsert(payload()))
	assert.Equal(t, "queue-a", fake.patch["queue_id"])
	assert.Equal(t, "sound", fake.patch["reasoning"])
}

func TestUpsertEmptyQueueIDNeverPatched(t *testing.T) {
	existing := payload()
	existing.ID = "e1"
	existing.Verdict = store.VerdictInconclusive
	fake := &fakeWriteStore{existing: &existing}
	writer := NewWriter(fake)

	row := payload()
	row.QueueID = ""
	require.NoError(t, writer.Upsert(row))
	assert.NotContains(t, fake.patch, "queue_id")
}

func TestUpsertPropagatesLookupError(t *testing.T) {
	fake := &fakeWriteStore{findErr: errors.New("store down")}
	writer := NewWriter(fake)

	err := writer.Upsert(payload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}
