package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
)

// liveInterval is the cadence of live status emissions.
const liveInterval = time.Second

// LiveHandler streams job-status snapshots over SSE, one per second, and
// closes the stream once the run settles.
type LiveHandler struct {
	reporter *Reporter
	server   *sse.Server

	mu      sync.Mutex
	waiters map[string]chan struct{}
}

// NewLiveHandler creates the SSE endpoint for live job status.
func NewLiveHandler(r *Reporter) *LiveHandler {
	h := &LiveHandler{
		reporter: r,
		server:   sse.New(),
		waiters:  map[string]chan struct{}{},
	}
	h.server.AutoReplay = false
	h.server.OnSubscribe = func(streamID string, _ *sse.Subscriber) {
		h.mu.Lock()
		if ready, ok := h.waiters[streamID]; ok {
			close(ready)
			delete(h.waiters, streamID)
		}
		h.mu.Unlock()
	}
	return h
}

// ServeHTTP subscribes the caller to a fresh per-connection stream and
// publishes snapshots until the run completes or the client disconnects.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	queueID := req.URL.Query().Get("queue_id")
	if queueID == "" {
		http.Error(w, `{"error":"queue_id is required"}`, http.StatusBadRequest)
		return
	}

	streamID := uuid.NewString()
	h.server.CreateStream(streamID)
	defer h.server.RemoveStream(streamID)

	ready := make(chan struct{})
	h.mu.Lock()
	h.waiters[streamID] = ready
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.waiters, streamID)
		h.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	go h.publish(ctx, streamID, queueID, ready)

	// The sse server picks its stream from the query string.
	query := req.URL.Query()
	query.Set("stream", streamID)
	req.URL.RawQuery = query.Encode()

	h.server.ServeHTTP(w, req.WithContext(ctx))
}

// publish emits one snapshot per second. The first emission waits for the
// subscriber to register, so an already-settled queue still sees its one
// snapshot. Count failures skip the tick; once the run is complete the
// stream is removed after one more interval, long enough for the final
// event to reach the subscriber, which disconnects it.
func (h *LiveHandler) publish(ctx context.Context, streamID, queueID string, ready <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-ready:
	}

	ticker := time.NewTicker(liveInterval)
	defer ticker.Stop()

	for {
		snapshot, err := h.reporter.JobStatus(queueID)
		if err != nil {
			statusLog.Printf("live status for %s: %v", queueID, err)
		} else {
			payload, err := json.Marshal(snapshot)
			if err == nil {
				h.server.Publish(streamID, &sse.Event{Data: payload})
			}
			if snapshot.Complete() {
				select {
				case <-ctx.Done():
				case <-ticker.C:
				}
				h.server.RemoveStream(streamID)
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
