package ssr

import (
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/ivargas/misterio/internal/errors"
	"golang.org/x/net/html"
)

// Custom elements used in the page templates are expanded into plain HTML
// carrying the right classes. Templates stay free of styling noise and the
// browser needs no custom-element JavaScript. The output must contain only
// real elements: a form with its submit button renamed to an unknown tag
// would be unsubmittable.
func applyTransforms(doc *goquery.Document) {
	buttonClass := "btn-primary"
	doc.Find("button-primary").Each(func(_ int, s *goquery.Selection) {
		s.Nodes[0].Data = "button"
		s.AddClass(buttonClass)
	})
	doc.Find(`[as="button-primary"]`).Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr("as")
		s.AddClass(buttonClass)
	})

	doc.Find("clue-item").Each(func(_ int, s *goquery.Selection) {
		s.AddClass("clue-card")
	})
}

// ReplaceCustomElements expands the custom elements in an HTML fragment.
func ReplaceCustomElements(writer io.Writer, reader io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return errors.Wrap(err, "parse html")
	}
	applyTransforms(doc)

	// goquery wraps fragments in html/head/body: render only the body children
	// to recover the original fragment.
	body := doc.Find("body")
	if len(body.Nodes) > 0 {
		for c := body.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
			if err = html.Render(writer, c); err != nil {
				return errors.Wrap(err, "render html")
			}
		}
	}
	return nil
}

// ExpandDocument expands the custom elements in a complete HTML document,
// preserving the doctype and head.
func ExpandDocument(writer io.Writer, reader io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return errors.Wrap(err, "parse html")
	}
	applyTransforms(doc)

	for c := doc.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if err = html.Render(writer, c); err != nil {
			return errors.Wrap(err, "render html")
		}
	}
	return nil
}
