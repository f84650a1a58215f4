package store

import (
	"fmt"

	supabase "github.com/supabase-community/supabase-go"
)

// Table names. The unique key on evaluations
// (submission_id, question_id, judge_id) is enforced by the schema.
const (
	TableSubmissions = "submissions"
	TableJudges      = "judges"
	TableAssignments = "assignments"
	TableJobs        = "judge_jobs"
	TableEvaluations = "evaluations"
)

// Client wraps the Supabase Go client with typed operations for every
// judgeflow table.
type Client struct {
	client *supabase.Client
}

// NewClient creates a store client from explicit credentials.
func NewClient(url, key string) (*Client, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set")
	}

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{client: client}, nil
}

// CountRows counts rows in a table matched by column equality filters.
func (sc *Client) CountRows(table string, filters map[string]string) (int64, error) {
	query := sc.client.From(table).Select("id", "exact", true)
	for col, val := range filters {
		query = query.Eq(col, val)
	}
	_, count, err := query.Execute()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
