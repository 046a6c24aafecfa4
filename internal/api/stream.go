package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StreamCapacity pushes remaining spots for one event as Server-Sent Events.
// The first message carries the current count.
func (h *Handler) StreamCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.handleError(w, "StreamCapacity", err, "")
		return
	}

	details, err := h.Query.EventDetails(r.Context(), id)
	if err != nil {
		h.handleError(w, "StreamCapacity", err, "Event not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok || h.Capacity == nil {
		h.sendError(w, http.StatusNotImplemented, "Streaming unsupported")
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	ctx := r.Context()
	updates := h.Capacity.Subscribe(ctx, id)

	fmt.Fprintf(w, "event: connected\ndata: {\"eventId\":%d,\"remainingSpots\":%d}\n\n", id, details.EventDetails.RemainingSpots)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to capacity stream for event %d", id))

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize capacity update: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: capacity\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from capacity stream for event %d", id))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
