package main

import (
	"io"
	"net/http"
	url2 "net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/justinas/nosurf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createGame submits the new-case form and returns the game page document and
// the game's action URL path.
func createGame(t *testing.T, server *testServer) (*goquery.Document, string) {
	t.Helper()
	doc := server.SubmitForm(t, "/", "/games", nil)

	actionPath, ok := doc.Find("#action-form").Attr("action")
	require.True(t, ok, "action form not found on game page")
	require.True(t, strings.HasPrefix(actionPath, "/games/"))
	require.True(t, strings.HasSuffix(actionPath, "/action"))
	return doc, actionPath
}

func Test_application_createGame(t *testing.T) {
	server := newTestServer(t)

	doc, actionPath := createGame(t, server)

	assert.Contains(t, doc.Find("h1").Text(), "El Expediente Final")
	assert.Contains(t, doc.Text(), "hallado sin vida en la sala de comisiones")
	assert.Equal(t, 1, doc.Find("img.scene").Length())
	assert.Equal(t, 1, doc.Find("#action-form button[type=submit]").Length())
	// First visit shows the tutorial.
	assert.Equal(t, 1, doc.Find("aside.tutorial").Length())

	// Revisiting does not.
	gamePath := strings.TrimSuffix(actionPath, "/action")
	doc = server.GetDoc(t, gamePath)
	assert.Equal(t, 0, doc.Find("aside.tutorial").Length())

	// The new game shows up on the home page.
	doc = server.GetDoc(t, "/")
	assert.Contains(t, doc.Find(".saved-game").Text(), "El Expediente Final")
}

func Test_application_gameAction(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)

	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"revisar el despacho"}})

	assert.Contains(t, doc.Text(), "descubrís algo inquietante")
	clues := doc.Find(".clues clue-item")
	require.Equal(t, 1, clues.Length())
	assert.Contains(t, clues.Text(), "Pista 1")
	assert.True(t, clues.HasClass("clue-card"))

	// A second action accumulates narration and clues.
	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"interrogar al ordenanza"}})
	assert.Equal(t, 2, doc.Find(".clues clue-item").Length())
}

func Test_application_gameAction_htmxPartial(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)

	form := doc.Find("#action-form")
	csrfToken, ok := form.Find("input[name=csrf_token]").Attr("value")
	require.True(t, ok)

	formData := url2.Values{}
	formData.Set("csrf_token", csrfToken)
	formData.Set("action", "revisar el archivo")
	req, err := http.NewRequest(http.MethodPost, server.url+actionPath, strings.NewReader(formData.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(nosurf.HeaderName, csrfToken)
	req.Header.Set("HX-Request", "true")

	resp, err := server.client.Do(req)
	require.NoError(t, err)
	defer func(body io.ReadCloser) {
		assert.NoError(t, body.Close())
	}(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// The partial is a bare fragment with expanded custom elements.
	assert.NotContains(t, string(body), "<html")
	assert.Contains(t, string(body), "descubrís algo inquietante")
	assert.Contains(t, string(body), `class="clue-card"`)
}

func Test_application_solveFlow(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)

	// A wrong accusation does not end the game.
	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"SOLUCIÓN: el ordenanza"}})
	assert.Contains(t, doc.Text(), "Evaluación de la solución")
	assert.Equal(t, 0, doc.Find(".solved-banner").Length())

	// The right accusation does.
	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"SOLUCIÓN: la secretaria de bloque"}})
	require.Equal(t, 1, doc.Find(".solved-banner").Length())
	_, disabled := doc.Find("#action").Attr("disabled")
	assert.True(t, disabled)

	// The home page marks the case as solved.
	doc = server.GetDoc(t, "/")
	assert.Contains(t, doc.Find(".saved-game .badge").Text(), "Resuelto")
}

func Test_application_gameAction_narratorFailure(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)
	server.ai.turnErr = errors.New("upstream down")

	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"revisar el despacho"}})

	assert.Contains(t, doc.Find(".flash").Text(), "El narrador no respondió")
	// The failed turn committed nothing.
	assert.Equal(t, 0, doc.Find(".clues clue-item").Length())
}

func Test_application_gameAction_imageBlocked(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)
	server.ai.imageErr = game.ErrNoImages

	doc = server.SubmitFormOn(t, doc, actionPath, url2.Values{"action": {"revisar el despacho"}})

	assert.Contains(t, doc.Find(".flash").Text(), "La imagen de la escena fue bloqueada")
}

func Test_application_gameSave(t *testing.T) {
	server := newTestServer(t)
	doc, actionPath := createGame(t, server)
	gamePath := strings.TrimSuffix(actionPath, "/action")

	doc = server.SubmitFormOn(t, doc, gamePath+"/save", nil)

	assert.Contains(t, doc.Find(".flash").Text(), "Partida guardada")
}

func Test_application_gameDelete(t *testing.T) {
	server := newTestServer(t)
	_, actionPath := createGame(t, server)
	gamePath := strings.TrimSuffix(actionPath, "/action")

	doc := server.SubmitForm(t, "/", gamePath+"/delete", nil)

	assert.Contains(t, doc.Find(".flash").Text(), "Partida eliminada")
	assert.Contains(t, doc.Text(), "No hay casos guardados")

	// The deleted game is gone.
	resp := server.Get(t, gamePath)
	defer func(body io.ReadCloser) {
		assert.NoError(t, body.Close())
	}(resp.Body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_application_progress_unknownID(t *testing.T) {
	server := newTestServer(t)

	resp := server.Get(t, "/progress/no-such-operation")
	defer func(body io.ReadCloser) {
		assert.NoError(t, body.Close())
	}(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: done")
}
