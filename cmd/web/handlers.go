package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/ivargas/misterio/internal/contexthelpers"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/ssr"
	"github.com/ivargas/misterio/ui"
)

// pageTemplate returns a template for the given page name.
//
// pageName corresponds to a directory inside ui/templates/pages. It has to
// include a template named "page".
func (app *application) pageTemplate(pageName string) (*template.Template, error) {
	files := []string{
		"templates/base.gohtml",
	}

	pageTemplateFiles, err := fs.Glob(ui.Files, fmt.Sprintf("templates/pages/%s/*.gohtml", pageName))
	if err != nil {
		return nil, errors.Wrap(err, "glob page template files")
	}
	files = append(files, pageTemplateFiles...)

	// The FuncMap has to exist before parsing. The render functions swap in
	// the real per-request implementations.
	return template.New(pageName).Funcs(template.FuncMap{
		"nonce": func() string {
			panic("not implemented")
		},
		"csrf": func() string {
			panic("not implemented")
		},
		"csrfToken": func() string {
			panic("not implemented")
		},
	}).ParseFS(ui.Files, files...)
}

func (app *application) requestFuncs(r *http.Request) template.FuncMap {
	ctx := r.Context()
	nonce := fmt.Sprintf("nonce=%q", contexthelpers.CSPNonce(ctx))
	token := contexthelpers.CSRFToken(ctx)
	csrf := fmt.Sprintf("<input type=\"hidden\" name=\"csrf_token\" value=\"%s\"/>", token)
	return template.FuncMap{
		"nonce": func() template.HTMLAttr {
			return template.HTMLAttr(nonce) //nolint:gosec // the nonce is not user-provided.
		},
		"csrf": func() template.HTML {
			return template.HTML(csrf) //nolint:gosec // the token is not user-provided.
		},
		"csrfToken": func() string {
			return token
		},
	}
}

func (app *application) render(w http.ResponseWriter, r *http.Request, status int, file string, data any) {
	t, err := app.pageTemplate(file)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse template", slog.String("template", file)))
		return
	}
	t.Funcs(app.requestFuncs(r))

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute template", slog.String("template", file)))
		return
	}

	expanded := new(bytes.Buffer)
	if err = ssr.ExpandDocument(expanded, buf); err != nil {
		app.serverError(w, r, errors.Wrap(err, "expand custom elements", slog.String("template", file)))
		return
	}

	w.WriteHeader(status)
	_, _ = expanded.WriteTo(w)
}

// renderPartial renders a named template of the page as a bare fragment, for
// htmx swap responses.
func (app *application) renderPartial(w http.ResponseWriter, r *http.Request, file, name string, data any) {
	t, err := app.pageTemplate(file)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "parse template", slog.String("template", file)))
		return
	}
	t.Funcs(app.requestFuncs(r))

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, name, data); err != nil {
		app.serverError(w, r, errors.Wrap(err, "execute partial",
			slog.String("template", file), slog.String("name", name)))
		return
	}

	expanded := new(bytes.Buffer)
	if err = ssr.ReplaceCustomElements(expanded, buf); err != nil {
		app.serverError(w, r, errors.Wrap(err, "expand custom elements", slog.String("template", file)))
		return
	}

	_, _ = expanded.WriteTo(w)
}
