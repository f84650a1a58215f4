package judge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judgeflow/internal/provider"
	"github.com/ocx/judgeflow/internal/store"
)

type fakeClient struct {
	response string
	err      error
	gotModel string
	gotText  string
	calls    int
}

func (f *fakeClient) Complete(_ context.Context, model, prompt string) (string, error) {
	f.calls++
	f.gotModel = model
	f.gotText = prompt
	return f.response, f.err
}

func testData() store.SubmissionData {
	return store.SubmissionData{
		Questions: []store.QuestionEntry{
			{"id": "q1", "questionText": "Is the sky blue?"},
		},
		Answers: map[string]json.RawMessage{
			"q1": json.RawMessage(`"yes"`),
		},
	}
}

func testJudges() map[string]store.JudgeRow {
	return map[string]store.JudgeRow{
		"j1": {ID: "j1", Name: "accuracy", SystemPrompt: "You are strict.", Model: "gpt-4o", Active: true},
	}
}

func TestRunSingleHappyPath(t *testing.T) {
	fake := &fakeClient{response: `{"verdict":"pass","reasoning":"sound"}`}
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", testJudges())
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, "s1", row.SubmissionID)
	assert.Equal(t, "q1", row.QuestionID)
	assert.Equal(t, "j1", row.JudgeID)
	assert.Equal(t, store.VerdictPass, row.Verdict)
	assert.Equal(t, "sound", row.Reasoning)
	assert.NotZero(t, row.ReasoningSimhash)
	assert.NotEmpty(t, row.CreatedAt)

	assert.Equal(t, "gpt-4o", fake.gotModel)
	assert.Contains(t, fake.gotText, "You are strict.")
	assert.Contains(t, fake.gotText, "Is the sky blue?")
	assert.Contains(t, fake.gotText, "yes")
}

func TestRunSingleSkipsMissingQuestion(t *testing.T) {
	fake := &fakeClient{response: "pass"}
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q-other", "j1", testJudges())
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Zero(t, fake.calls)
}

func TestRunSingleSkipsMissingAnswer(t *testing.T) {
	data := testData()
	delete(data.Answers, "q1")

	fake := &fakeClient{response: "pass"}
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

	row, err := runner.RunSingle(context.Background(), "s1", data, "q1", "j1", testJudges())
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Zero(t, fake.calls)
}

func TestRunSingleSkipsEmptyAnswers(t *testing.T) {
	// Answers that are present but carry nothing must not be judged.
	for _, raw := range []string{`null`, `""`, `{}`, `[]`} {
		data := testData()
		data.Answers["q1"] = json.RawMessage(raw)

		fake := &fakeClient{response: "pass"}
		runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

		row, err := runner.RunSingle(context.Background(), "s1", data, "q1", "j1", testJudges())
		require.NoError(t, err, raw)
		assert.Nil(t, row, raw)
		assert.Zero(t, fake.calls, raw)
	}
}

func TestRunSingleSkipsInactiveJudge(t *testing.T) {
	judges := testJudges()
	j := judges["j1"]
	j.Active = false
	judges["j1"] = j

	runner := NewRunner(map[string]provider.Client{provider.OpenAI: &fakeClient{}})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", judges)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRunSingleSkipsUnknownJudge(t *testing.T) {
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: &fakeClient{}})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "nope", testJudges())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRunSingleSkipsUnroutableModel(t *testing.T) {
	judges := testJudges()
	j := judges["j1"]
	j.Model = "mystery-model"
	j.Provider = ""
	judges["j1"] = j

	runner := NewRunner(map[string]provider.Client{provider.OpenAI: &fakeClient{}})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", judges)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRunSingleSkipsWhenNoClientForProvider(t *testing.T) {
	runner := NewRunner(map[string]provider.Client{})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", testJudges())
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRunSinglePropagatesProviderError(t *testing.T) {
	fake := &fakeClient{err: errors.New("rate limit exceeded")}
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", testJudges())
	require.Error(t, err)
	assert.Nil(t, row)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestRunSingleEmptyResponseIsNoop(t *testing.T) {
	fake := &fakeClient{response: ""}
	runner := NewRunner(map[string]provider.Client{provider.OpenAI: fake})

	row, err := runner.RunSingle(context.Background(), "s1", testData(), "q1", "j1", testJudges())
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, 1, fake.calls)
}
