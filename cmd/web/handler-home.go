package main

import (
	"net/http"

	"github.com/ivargas/misterio/internal/random"
)

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	progressID, err := random.Letters(16)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	saved := app.store.List()
	games := make([]savedGameView, len(saved))
	for i, session := range saved {
		games[i] = savedGameView{
			ID:      session.ID,
			Title:   session.Mystery.Title,
			Created: formatCreated(session),
			Clues:   len(session.Clues),
			Solved:  session.Solved,
		}
	}

	data := homeTemplateData{
		BaseTemplateData: app.newBaseTemplateData(r),
		ProgressID:       progressID,
		Games:            games,
	}

	app.render(w, r, http.StatusOK, "home", data)
}
