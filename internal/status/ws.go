package status

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSHandler mirrors the SSE live stream over a WebSocket for clients that
// cannot consume SSE. Same payload, same cadence, same termination rule.
type WSHandler struct {
	reporter *Reporter
	upgrader websocket.Upgrader
}

// NewWSHandler creates the WebSocket endpoint for live job status.
func NewWSHandler(r *Reporter) *WSHandler {
	return &WSHandler{
		reporter: r,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	queueID := req.URL.Query().Get("queue_id")
	if queueID == "" {
		http.Error(w, `{"error":"queue_id is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		statusLog.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Drain reads so peer close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(liveInterval)
	defer ticker.Stop()

	for {
		snapshot, err := h.reporter.JobStatus(queueID)
		if err != nil {
			statusLog.Printf("ws status for %s: %v", queueID, err)
		} else {
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
			if snapshot.Complete() {
				closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete")
				_ = conn.WriteMessage(websocket.CloseMessage, closing)
				return
			}
		}

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
