package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	url2 "net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/ivargas/misterio/db"
	"github.com/ivargas/misterio/internal/broker"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/ivargas/misterio/internal/repositories"
	"github.com/ivargas/misterio/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	url    string
	client http.Client
	ai     *fakeAI
}

// newTestServer builds the application around fake AI collaborators and an
// in-memory database, and serves it from a test listener.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testhelpers.NewLogger(io.Discard)

	dbs, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, dbs.Close())
	})

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 0)
	sessionManager.Lifetime = time.Hour

	ai := &fakeAI{}
	store := repositories.NewSessionStore(context.Background(), dbs, logger)
	machine := game.NewMachine(store, ai, ai, ai, ai, logger)

	progress := broker.NewChannelBroker[string, progressEvent]()
	go progress.Start()
	t.Cleanup(progress.Stop)

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		htmx:           htmx.New(),
		machine:        machine,
		store:          store,
		progress:       progress,
	}

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)

	jar, err := newUnsafeCookieJar()
	require.NoError(t, err)

	return &testServer{
		url:    server.URL,
		client: http.Client{Jar: jar}, //nolint:exhaustruct // defaults are fine
		ai:     ai,
	}
}

// Get fetches a URL and returns the response.
func (s *testServer) Get(t *testing.T, urlPath string) *http.Response {
	t.Helper()
	resp, err := s.client.Get(s.url + urlPath)
	require.NoError(t, err)
	return resp
}

// GetDoc fetches a URL and returns a goquery document.
func (s *testServer) GetDoc(t *testing.T, urlPath string) *goquery.Document {
	t.Helper()
	resp := s.Get(t, urlPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func() {
		err := resp.Body.Close()
		require.NoError(t, err)
	}()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

// SubmitForm submits the form with the given action found on the page at
// formURLPath, adding the extra values, and returns the document the browser
// ends up on after redirects.
func (s *testServer) SubmitForm(t *testing.T, formURLPath, formActionURLPath string, extra url2.Values) *goquery.Document {
	t.Helper()
	doc := s.GetDoc(t, formURLPath)
	return s.SubmitFormOn(t, doc, formActionURLPath, extra)
}

// SubmitFormOn is like SubmitForm for an already fetched document.
func (s *testServer) SubmitFormOn(t *testing.T, doc *goquery.Document, formActionURLPath string, extra url2.Values) *goquery.Document {
	t.Helper()
	html, err := doc.Html()
	require.NoError(t, err)

	formSelector := fmt.Sprintf("form[action='%s']", formActionURLPath)
	form := doc.Find(formSelector)
	require.Equal(t, 1, form.Length(), "form %s not found in document:\n%s", formSelector, html)
	csrfToken, ok := form.Find("input[name=csrf_token]").Attr("value")
	require.True(t, ok, "csrf_token not found in form %s", formSelector)

	formData := url2.Values{}
	formData.Add("csrf_token", csrfToken)
	form.Find("input[type=hidden]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("value")
		if name != "" && name != "csrf_token" {
			formData.Set(name, value)
		}
	})
	for key, values := range extra {
		for _, value := range values {
			formData.Set(key, value)
		}
	}
	data := strings.NewReader(formData.Encode())

	resp, err := s.client.Post(s.url+formActionURLPath, "application/x-www-form-urlencoded", data)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func(body io.ReadCloser) {
		err = body.Close()
		assert.NoError(t, err)
	}(resp.Body)

	doc, err = goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

// waitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func waitForReady(ctx context.Context, endpoint string) error {
	timeout := 1 * time.Second
	client := http.Client{} //nolint:exhaustruct // defaults are fine
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			endpoint,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(250 * time.Millisecond)
		}
	}
}
