package main

import (
	"net/http"

	"github.com/justinas/alice"

	"github.com/ivargas/misterio/ui"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", cacheForeverHeaders(http.FileServerFS(ui.Files)))

	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))

	// Pages and form posts go through browser sessions and CSRF protection.
	dynamic := alice.New(app.sessionManager.LoadAndSave, noSurf, app.commonContext)

	mux.Handle("GET /{$}", dynamic.ThenFunc(app.home))
	mux.Handle("POST /games", dynamic.ThenFunc(app.createGame))
	mux.Handle("GET /games/{gameID}", dynamic.ThenFunc(app.gameView))
	mux.Handle("POST /games/{gameID}/action", dynamic.ThenFunc(app.gameAction))
	mux.Handle("POST /games/{gameID}/save", dynamic.ThenFunc(app.gameSave))
	mux.Handle("POST /games/{gameID}/delete", dynamic.ThenFunc(app.gameDelete))

	// SSE needs a session middleware that doesn't buffer the response.
	sse := alice.New(app.serverSentEventMiddleware)
	mux.Handle("GET /progress/{progressID}", sse.ThenFunc(app.gameProgress))

	standard := alice.New(app.recoverPanic, app.logRequest, app.secureHeaders)

	return standard.Then(mux)
}
