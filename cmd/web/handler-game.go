package main

import (
	"log/slog"
	"net/http"

	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/ivargas/misterio/internal/random"
)

func (app *application) gameView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := app.store.Get(r.PathValue("gameID"))
	if !ok {
		app.notFound(w, r)
		return
	}

	seen, err := app.store.TutorialSeen(ctx, session.ID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !seen {
		// The tutorial shows once. A failed flag write only means it shows again.
		if err = app.store.MarkTutorialSeen(ctx, session.ID); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "mark tutorial seen",
				slog.String("game_id", session.ID), errors.SlogError(err))
		}
	}

	progressID, err := random.Letters(16)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(ctx, lastGameSessionKey, session.ID)

	data := newGameTemplateData(app.newBaseTemplateData(r), session, !seen, progressID)
	app.render(w, r, http.StatusOK, "game", data)
}

func (app *application) gameAction(w http.ResponseWriter, r *http.Request) {
	session, ok := app.store.Get(r.PathValue("gameID"))
	if !ok {
		app.notFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return
	}
	progressID := r.PostForm.Get("progress_id")

	report, cleanup := app.publishProgress(progressID)
	defer cleanup()

	next, err := app.machine.SubmitAction(r.Context(), session, r.PostForm.Get("action"), preferredLocale(r), report)
	if err != nil {
		// Save failures mean the turn is committed in memory but not on disk.
		// That is a real server fault; collaborator failures just cost the
		// player one retry.
		if errors.Is(err, game.ErrSaveFailed) {
			app.serverError(w, r, err)
			return
		}
		app.logger.LogAttrs(r.Context(), slog.LevelError, "submit action",
			slog.String("game_id", session.ID), errors.SlogError(err))
		flash := "El narrador no respondió. Intentá de nuevo."
		if errors.Is(err, game.ErrNoImages) {
			flash = "La imagen de la escena fue bloqueada. Probá con otra acción."
		}
		app.sessionManager.Put(r.Context(), flashSessionKey, flash)
		if app.htmx.NewHandler(w, r).IsHxRequest() {
			w.Header().Set("HX-Redirect", "/games/"+session.ID)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/games/"+session.ID, http.StatusSeeOther)
		return
	}

	if app.htmx.NewHandler(w, r).IsHxRequest() {
		data := newGameTemplateData(app.newBaseTemplateData(r), next, false, progressID)
		app.renderPartial(w, r, "game", "gameview", data)
		return
	}
	http.Redirect(w, r, "/games/"+next.ID, http.StatusSeeOther)
}

func (app *application) gameSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := app.store.Get(r.PathValue("gameID"))
	if !ok {
		app.notFound(w, r)
		return
	}

	if err := app.store.SaveOne(ctx, session); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.sessionManager.Put(ctx, flashSessionKey, "Partida guardada.")
	http.Redirect(w, r, "/games/"+session.ID, http.StatusSeeOther)
}

// gameDelete removes the saved game. Confirmation happens in the browser, the
// operation itself is immediate and final.
func (app *application) gameDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("gameID")
	if _, ok := app.store.Get(id); !ok {
		app.notFound(w, r)
		return
	}

	if err := app.store.DeleteOne(ctx, id); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.machine.ClearActive(id)

	app.sessionManager.Remove(ctx, lastGameSessionKey)
	app.sessionManager.Put(ctx, flashSessionKey, "Partida eliminada.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
