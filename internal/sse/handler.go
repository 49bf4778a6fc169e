package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-backoffice/internal/logger"
)

const heartbeatInterval = 25 * time.Second

type Handler struct {
	Feed   *PaymentFeed
	Logger *logger.Logger
}

func NewHandler(feed *PaymentFeed, log *logger.Logger) *Handler {
	return &Handler{Feed: feed, Logger: log}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// StreamPayments streams payment.recorded events. ?form_no= narrows the stream to one admission.
func (h *Handler) StreamPayments(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	formNo := r.URL.Query().Get("form_no")

	setupSSEHeaders(w)
	ctx := r.Context()
	events := h.Feed.Subscribe(ctx, formNo)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("Client connected to payment feed (form_no=%q)", formNo))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize payment event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from payment feed")
			return
		}
	}
}
