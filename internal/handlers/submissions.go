package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/ingest"
)

// Ingester lands a batch of submissions.
type Ingester interface {
	Ingest(batch []ingest.Submission) (int, error)
}

func (h *Handlers) uploadSubmissions(w http.ResponseWriter, r *http.Request) {
	var batch []ingest.Submission
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, fault.Validation("invalid submissions payload: %v", err))
		return
	}

	uploaded, err := h.ingester.Ingest(batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"uploaded": uploaded})
}
