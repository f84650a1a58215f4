package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocx/judgeflow/internal/analytics"
	"github.com/ocx/judgeflow/internal/middleware"
	"github.com/ocx/judgeflow/internal/queue"
)

// Deps wires the HTTP layer to the services underneath. The store client
// satisfies every *Store interface; tests substitute fakes.
type Deps struct {
	Judges         JudgeStore
	Assignments    AssignmentStore
	QueueStore     queue.Store
	SummaryStore   analytics.Store
	DuplicateStore analytics.DuplicateStore

	Ingester Ingester
	Enqueuer Enqueuer
	Lister   Lister
	Reporter StatusReporter

	Live http.Handler
	WS   http.Handler

	PageLimit   int
	CORSOrigins []string
	RateLimit   int
}

// Handlers holds the wired endpoint set.
type Handlers struct {
	judges         JudgeStore
	assignments    AssignmentStore
	queueStore     queue.Store
	summaryStore   analytics.Store
	duplicateStore analytics.DuplicateStore
	ingester       Ingester
	enqueuer       Enqueuer
	lister         Lister
	reporter       StatusReporter
	live           http.Handler
	ws             http.Handler
	pageLimit      int
}

// New creates the handler set from its dependencies.
func New(deps Deps) *Handlers {
	pageLimit := deps.PageLimit
	if pageLimit < 1 {
		pageLimit = 50
	}
	return &Handlers{
		judges:         deps.Judges,
		assignments:    deps.Assignments,
		queueStore:     deps.QueueStore,
		summaryStore:   deps.SummaryStore,
		duplicateStore: deps.DuplicateStore,
		ingester:       deps.Ingester,
		enqueuer:       deps.Enqueuer,
		lister:         deps.Lister,
		reporter:       deps.Reporter,
		live:           deps.Live,
		ws:             deps.WS,
		pageLimit:      pageLimit,
	}
}

// Router builds the full API router with middleware applied.
func Router(deps Deps) *mux.Router {
	h := New(deps)

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "judgeflow-api"})
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/submissions", h.uploadSubmissions).Methods("POST")

	router.HandleFunc("/judges", h.listJudges).Methods("GET")
	router.HandleFunc("/judges", h.createJudge).Methods("POST")
	router.HandleFunc("/judges/{id}", h.updateJudge).Methods("PUT")
	router.HandleFunc("/judges/{id}", h.deleteJudge).Methods("DELETE")

	router.HandleFunc("/queue/questions", h.listQuestions).Methods("GET")
	router.HandleFunc("/queue/assignments", h.listAssignments).Methods("GET")
	router.HandleFunc("/queue/assignments", h.saveAssignments).Methods("POST")
	router.HandleFunc("/queue/run", h.runQueue).Methods("POST")

	router.HandleFunc("/evaluations", h.listEvaluations).Methods("GET")

	router.HandleFunc("/diagnostics/job_status", h.jobStatus).Methods("GET")
	router.HandleFunc("/diagnostics/queue", h.queueDebug).Methods("GET")
	router.HandleFunc("/diagnostics/summary", h.summary).Methods("GET")
	router.HandleFunc("/diagnostics/duplicates", h.duplicates).Methods("GET")
	if h.live != nil {
		router.Handle("/diagnostics/live_job_status", h.live).Methods("GET")
	}
	if h.ws != nil {
		router.Handle("/diagnostics/ws_job_status", h.ws).Methods("GET")
	}

	router.Use(middleware.CORS(deps.CORSOrigins))
	router.Use(middleware.Logging)
	router.Use(middleware.NewRateLimiter(deps.RateLimit).Middleware)

	return router
}
