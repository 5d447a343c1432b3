package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ivargas/misterio/internal/errors"
)

// gameProgress streams loading progress events for the operation identified by
// the progress ID. When no operation is running, or another stream already
// consumes the events, the stream completes with a done event so the browser
// re-renders from the saved state.
func (app *application) gameProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverError(w, r, errors.New("response writer does not support streaming"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	done := func() {
		_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
		flusher.Flush()
	}

	subscription := app.progress.Subscribe(r.PathValue("progressID"))
	var events chan progressEvent
	select {
	case events = <-subscription:
	case <-r.Context().Done():
		return
	}
	if events == nil {
		done()
		return
	}

	for {
		select {
		case event, open := <-events:
			if !open {
				done()
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				app.logger.LogAttrs(r.Context(), slog.LevelError, "marshal progress event", errors.SlogError(err))
				continue
			}
			_, _ = fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
