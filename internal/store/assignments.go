package store

import "fmt"

// ListAssignments returns the assignment set of a queue.
func (sc *Client) ListAssignments(queueID string) ([]AssignmentRow, error) {
	var rows []AssignmentRow
	_, err := sc.client.From(TableAssignments).
		Select("*", "", false).
		Eq("queue_id", queueID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return rows, nil
}

// ReplaceAssignments swaps a queue's assignment set wholesale: existing
// rows are deleted, then the new set is inserted. Client-sent ids are
// discarded.
func (sc *Client) ReplaceAssignments(queueID string, rows []AssignmentRow) ([]AssignmentRow, error) {
	_, _, err := sc.client.From(TableAssignments).
		Delete("minimal", "").
		Eq("queue_id", queueID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("clear assignments: %w", err)
	}

	if len(rows) == 0 {
		return []AssignmentRow{}, nil
	}

	payload := make([]AssignmentRow, len(rows))
	for i, row := range rows {
		row.ID = ""
		row.QueueID = queueID
		payload[i] = row
	}

	var inserted []AssignmentRow
	_, err = sc.client.From(TableAssignments).
		Insert(payload, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return nil, fmt.Errorf("insert assignments: %w", err)
	}
	return inserted, nil
}
