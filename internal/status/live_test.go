package status

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judgeflow/internal/store"
)

func TestLiveRequiresQueueID(t *testing.T) {
	h := NewLiveHandler(NewReporter(&fakeStatusStore{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/diagnostics/live_job_status", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveSettledQueueStillReceivesSnapshot(t *testing.T) {
	// A queue whose run already finished must deliver its one snapshot
	// before the stream closes, even though the connection opens after the
	// run settled.
	fake := &fakeStatusStore{jobCounts: map[string]int64{
		"":              5,
		store.JobDone:   4,
		store.JobFailed: 1,
	}}
	h := NewLiveHandler(NewReporter(fake))
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?queue_id=queue-a")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The body ends when the stream is removed after the final snapshot.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `"total":5`)
	assert.Contains(t, text, `"done":4`)
	assert.Contains(t, text, `"failed":1`)
}
