// Package judge runs one LLM judge against one submitted answer and
// normalizes whatever the model says into a durable evaluation.
package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/ocx/judgeflow/internal/fingerprint"
	"github.com/ocx/judgeflow/internal/provider"
	"github.com/ocx/judgeflow/internal/store"
)

const promptTemplate = "%s\n\nQuestion: %s\n\nAnswer: %s\n\n" +
	`Response ONLY with a Json object: {"verdict":"pass|fail|inconclusive","reasoning":"..."}` + "\n"

// Runner evaluates single jobs against a provider-clients map.
type Runner struct {
	Clients map[string]provider.Client
}

// NewRunner creates a runner over the given provider clients.
func NewRunner(clients map[string]provider.Client) *Runner {
	return &Runner{Clients: clients}
}

// RunSingle runs one judge on one question of one submission.
//
// It returns (nil, nil) — a no-op, not a failure — when the question or
// answer is absent, the judge is missing or inactive, or no provider can be
// resolved for it. Provider call errors propagate to the caller for retry
// classification.
func (r *Runner) RunSingle(
	ctx context.Context,
	submissionID string,
	data store.SubmissionData,
	questionID string,
	judgeID string,
	judges map[string]store.JudgeRow,
) (*store.EvaluationRow, error) {
	question := data.Question(questionID)
	if question == nil {
		return nil, nil
	}

	answer, ok := data.Answers[questionID]
	if !ok || store.AnswerEmpty(answer) {
		return nil, nil
	}

	j, ok := judges[judgeID]
	if !ok || !j.Active {
		return nil, nil
	}
	if j.Model == "" {
		return nil, nil
	}

	providerID := provider.Resolve(j.Provider, j.Model)
	if providerID == "" {
		return nil, nil
	}
	client, ok := r.Clients[providerID]
	if !ok {
		return nil, nil
	}

	answerText := store.AnswerText(answer)
	prompt := fmt.Sprintf(promptTemplate, j.SystemPrompt, question.Text(), answerText)

	raw, err := client.Complete(ctx, j.Model, prompt)
	if err != nil {
		return nil, fmt.Errorf("judge %s via %s: %w", judgeID, providerID, err)
	}
	if raw == "" {
		return nil, nil
	}

	verdict, reasoning := ParseVerdict(raw)
	reasoning = truncate(reasoning, maxReasoningLen)

	return &store.EvaluationRow{
		SubmissionID:     submissionID,
		QuestionID:       questionID,
		JudgeID:          judgeID,
		Verdict:          verdict,
		Reasoning:        reasoning,
		ReasoningSimhash: fingerprint.SimHash(reasoning),
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}
