package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StreamAlerts pushes the alert window as server-sent events until the
// client disconnects.
func (a *API) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}

	asset, minutes, minImpact := alertParams(r)
	interval := a.cfg.AlertStreamInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	send := func() {
		data, err := json.Marshal(a.alerts.GetAlerts(asset, minutes, minImpact))
		if err != nil {
			a.logger.Warn("encode alert window", "error", err)
			return
		}
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	send()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			send()
		}
	}
}
