package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ocx/judgeflow/internal/fault"
	"github.com/ocx/judgeflow/internal/store"
)

// JudgeStore is the slice of the store the judges CRUD needs.
type JudgeStore interface {
	ListJudges() ([]store.JudgeRow, error)
	CreateJudge(judge store.JudgeRow) (store.JudgeRow, error)
	UpdateJudge(id string, judge store.JudgeRow) (store.JudgeRow, error)
	DeleteJudge(id string) error
}

func (h *Handlers) listJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := h.judges.ListJudges()
	if err != nil {
		writeError(w, err)
		return
	}
	if judges == nil {
		judges = []store.JudgeRow{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"judges": judges})
}

func (h *Handlers) createJudge(w http.ResponseWriter, r *http.Request) {
	var judge store.JudgeRow
	if err := json.NewDecoder(r.Body).Decode(&judge); err != nil {
		writeError(w, fault.Validation("invalid judge payload: %v", err))
		return
	}
	if judge.Name == "" || judge.SystemPrompt == "" || judge.Model == "" {
		writeError(w, fault.Validation("judge requires name, system_prompt, and model"))
		return
	}

	created, err := h.judges.CreateJudge(judge)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) updateJudge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var judge store.JudgeRow
	if err := json.NewDecoder(r.Body).Decode(&judge); err != nil {
		writeError(w, fault.Validation("invalid judge payload: %v", err))
		return
	}

	updated, err := h.judges.UpdateJudge(id, judge)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) deleteJudge(w http.ResponseWriter, r *http.Request) {
	if err := h.judges.DeleteJudge(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
