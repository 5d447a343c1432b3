package main

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/ivargas/misterio/internal/contexthelpers"
	"github.com/ivargas/misterio/internal/game"
)

type BaseTemplateData struct {
	CurrentPath string
	Flashes     []string
}

func (app *application) newBaseTemplateData(r *http.Request) BaseTemplateData {
	data := BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Flashes:     nil,
	}
	if flash := app.sessionManager.PopString(r.Context(), flashSessionKey); flash != "" {
		data.Flashes = []string{flash}
	}
	return data
}

type savedGameView struct {
	ID      string
	Title   string
	Created string
	Clues   int
	Solved  bool
}

type homeTemplateData struct {
	BaseTemplateData

	ProgressID string
	Games      []savedGameView
}

type gameTemplateData struct {
	BaseTemplateData

	GameID string
	Title  string
	// Image is a data URL produced by the image client, not user input, so it
	// may bypass the template URL sanitizer.
	Image               template.URL
	NarrationParagraphs []string
	Clues               []string
	Solved              bool
	ShowTutorial        bool
	ProgressID          string
}

func newGameTemplateData(base BaseTemplateData, session *game.Session, showTutorial bool, progressID string) gameTemplateData {
	return gameTemplateData{
		BaseTemplateData:    base,
		GameID:              session.ID,
		Title:               session.Mystery.Title,
		Image:               template.URL(session.CurrentImage), //nolint:gosec // generated server-side.
		NarrationParagraphs: splitParagraphs(session.CurrentNarration),
		Clues:               session.Clues,
		Solved:              session.Solved,
		ShowTutorial:        showTutorial,
		ProgressID:          progressID,
	}
}

func splitParagraphs(narration string) []string {
	var paragraphs []string
	for _, paragraph := range strings.Split(narration, "\n\n") {
		if paragraph = strings.TrimSpace(paragraph); paragraph != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	return paragraphs
}

func formatCreated(session *game.Session) string {
	return session.Created().Format(time.DateTime)
}
