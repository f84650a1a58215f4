package handlers

import (
	"net/http"
	"strconv"

	"github.com/ocx/judgeflow/internal/evaluation"
)

// Lister serves filtered evaluation pages.
type Lister interface {
	List(q evaluation.Query) (evaluation.Page, error)
}

func (h *Handlers) listEvaluations(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := evaluation.Query{
		QueueID: params.Get("queue_id"),
		Verdict: params.Get("verdict"),
		Page:    intParam(params.Get("page"), 1),
		Limit:   intParam(params.Get("limit"), h.pageLimit),
	}
	if ids, ok := params["judge_id"]; ok {
		q.JudgeIDs = ids
	}
	if ids, ok := params["question_id"]; ok {
		q.QuestionIDs = ids
	}

	page, err := h.lister.List(q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
