package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/logging"
)

// checkHealthy verifies the health endpoint of a deployed server.
func checkHealthy(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/healthy", nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request health endpoint")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.New("health endpoint not OK", slog.Int("status", resp.StatusCode))
	}
	return nil
}

// checkHome verifies that the front page serves the new-case form.
func checkHome(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request home page")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.New("home page not OK", slog.Int("status", resp.StatusCode))
	}

	var doc *goquery.Document
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return errors.Wrap(err, "parse home page")
	}
	if doc.Find("form[action='/games']").Length() != 1 {
		return errors.New("new-case form not found on home page")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
	)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))

	client := &http.Client{Timeout: 10 * time.Second} //nolint:exhaustruct,mnd // defaults are fine
	defer client.CloseIdleConnections()

	if err := checkHealthy(ctx, client, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "health check failed", errors.SlogError(err))
		os.Exit(1)
	}
	if err := checkHome(ctx, client, url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "home page check failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
