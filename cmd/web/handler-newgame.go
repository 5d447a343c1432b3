package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"golang.org/x/text/language"
)

// defaultLocale matches the game's original audience.
const defaultLocale = "es-ES"

func preferredLocale(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	return tags[0].String()
}

// publishProgress wires a progress reporter to the event stream identified by
// progressID. The returned cleanup must run when the operation finishes so
// the browser's event stream completes. An empty ID yields a nil reporter.
func (app *application) publishProgress(progressID string) (game.Progress, func()) {
	if progressID == "" || len(progressID) > 64 {
		return nil, func() {}
	}

	events := make(chan progressEvent)
	app.progress.Publish(progressID, events)

	report := func(percent int, message string) {
		// The browser may never open the stream. Don't hold up the game for it.
		select {
		case events <- progressEvent{Percent: percent, Message: message}:
		case <-time.After(200 * time.Millisecond):
		}
	}
	cleanup := func() {
		close(events)
		app.progress.Unpublish(progressID)
	}
	return report, cleanup
}

func (app *application) createGame(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}

	report, cleanup := app.publishProgress(r.PostForm.Get("progress_id"))
	defer cleanup()

	session, err := app.machine.Create(r.Context(), preferredLocale(r), report)
	if err != nil {
		if errors.Is(err, game.ErrSaveFailed) {
			app.serverError(w, r, err)
			return
		}
		app.logger.LogAttrs(r.Context(), slog.LevelError, "create game", errors.SlogError(err))
		app.sessionManager.Put(r.Context(), flashSessionKey, "No se pudo crear el misterio. Intentá de nuevo.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	app.sessionManager.Put(r.Context(), lastGameSessionKey, session.ID)
	http.Redirect(w, r, "/games/"+session.ID, http.StatusSeeOther)
}
