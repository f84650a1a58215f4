package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/queue"
	"github.com/ocx/judgeflow/internal/store"
)

// AssignmentStore is the slice of the store the assignment endpoints need.
type AssignmentStore interface {
	ListAssignments(queueID string) ([]store.AssignmentRow, error)
	ReplaceAssignments(queueID string, rows []store.AssignmentRow) ([]store.AssignmentRow, error)
}

// Enqueuer materializes a queue's jobs.
type Enqueuer interface {
	Enqueue(queueID string) (queue.Result, error)
}

func requireQueueID(w http.ResponseWriter, r *http.Request) (string, bool) {
	queueID := r.URL.Query().Get("queue_id")
	if queueID == "" {
		writeError(w, fault.Validation("queue_id is required"))
		return "", false
	}
	return queueID, true
}

func (h *Handlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	queueID, ok := requireQueueID(w, r)
	if !ok {
		return
	}

	ids, err := queue.ListQuestions(h.queueStore, queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": ids})
}

func (h *Handlers) listAssignments(w http.ResponseWriter, r *http.Request) {
	queueID, ok := requireQueueID(w, r)
	if !ok {
		return
	}

	rows, err := h.assignments.ListAssignments(queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []store.AssignmentRow{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": rows})
}

type saveAssignmentsRequest struct {
	QueueID     string                `json:"queue_id"`
	Assignments []store.AssignmentRow `json:"assignments"`
}

// saveAssignments replaces the queue's assignment set wholesale.
func (h *Handlers) saveAssignments(w http.ResponseWriter, r *http.Request) {
	var req saveAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("invalid assignments payload: %v", err))
		return
	}
	if req.QueueID == "" {
		writeError(w, fault.Validation("queue_id is required"))
		return
	}
	for i, row := range req.Assignments {
		if row.QuestionID == "" || row.JudgeID == "" {
			writeError(w, fault.Validation("assignment %d requires question_id and judge_id", i))
			return
		}
	}

	saved, err := h.assignments.ReplaceAssignments(req.QueueID, req.Assignments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": saved})
}

func (h *Handlers) runQueue(w http.ResponseWriter, r *http.Request) {
	queueID, ok := requireQueueID(w, r)
	if !ok {
		return
	}

	result, err := h.enqueuer.Enqueue(queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
