package store

import (
	"fmt"

	"github.com/ocx/judgeflow/internal/fault"
)

// ListJudges returns every judge row.
func (sc *Client) ListJudges() ([]JudgeRow, error) {
	var judges []JudgeRow
	_, err := sc.client.From(TableJudges).
		Select("*", "", false).
		ExecuteTo(&judges)
	if err != nil {
		return nil, fmt.Errorf("list judges: %w", err)
	}
	return judges, nil
}

// JudgesByID returns the judges catalog keyed by id.
func (sc *Client) JudgesByID() (map[string]JudgeRow, error) {
	judges, err := sc.ListJudges()
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]JudgeRow, len(judges))
	for _, j := range judges {
		catalog[j.ID] = j
	}
	return catalog, nil
}

// CreateJudge inserts a judge. Any client-sent id is discarded; the store
// assigns one.
func (sc *Client) CreateJudge(judge JudgeRow) (JudgeRow, error) {
	judge.ID = ""
	var created []JudgeRow
	_, err := sc.client.From(TableJudges).
		Insert(judge, false, "", "representation", "").
		ExecuteTo(&created)
	if err != nil {
		return JudgeRow{}, fmt.Errorf("create judge: %w", err)
	}
	if len(created) == 0 {
		return JudgeRow{}, fmt.Errorf("create judge: no row returned")
	}
	return created[0], nil
}

// UpdateJudge updates a judge by id. Returns fault.ErrNotFound when no row
// matched.
func (sc *Client) UpdateJudge(id string, judge JudgeRow) (JudgeRow, error) {
	judge.ID = ""
	var updated []JudgeRow
	_, err := sc.client.From(TableJudges).
		Update(judge, "representation", "").
		Eq("id", id).
		ExecuteTo(&updated)
	if err != nil {
		return JudgeRow{}, fmt.Errorf("update judge: %w", err)
	}
	if len(updated) == 0 {
		return JudgeRow{}, fault.ErrNotFound
	}
	return updated[0], nil
}

// DeleteJudge removes a judge. Deleting an unknown id is a no-op.
func (sc *Client) DeleteJudge(id string) error {
	_, _, err := sc.client.From(TableJudges).
		Delete("minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete judge: %w", err)
	}
	return nil
}

// JudgeNames resolves judge ids to display names. Used to enrich
// evaluation listings.
func (sc *Client) JudgeNames(ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var rows []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	_, err := sc.client.From(TableJudges).
		Select("id,name", "", false).
		In("id", ids).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("judge names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
