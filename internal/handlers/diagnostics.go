package handlers

import (
	"net/http"

	"github.com/ocx/judgeflow/internal/analytics"
	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/status"
)

// StatusReporter computes queue progress snapshots.
type StatusReporter interface {
	JobStatus(queueID string) (status.JobStatus, error)
	QueueDebug(queueID string) status.QueueDebug
}

func (h *Handlers) jobStatus(w http.ResponseWriter, r *http.Request) {
	queueID, ok := requireQueueID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.reporter.JobStatus(queueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) queueDebug(w http.ResponseWriter, r *http.Request) {
	queueID, ok := requireQueueID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.reporter.QueueDebug(queueID))
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Summarize(h.summaryStore))
}

// defaultDuplicateDistance is the Hamming cutoff when the caller does not
// pass max_distance.
const defaultDuplicateDistance = 8

func (h *Handlers) duplicates(w http.ResponseWriter, r *http.Request) {
	submissionID := r.URL.Query().Get("submission_id")
	if submissionID == "" {
		writeError(w, fault.Validation("submission_id is required"))
		return
	}
	maxDistance := intParam(r.URL.Query().Get("max_distance"), defaultDuplicateDistance)

	matches, err := analytics.NearDuplicates(h.duplicateStore, submissionID, maxDistance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"duplicates": matches})
}
