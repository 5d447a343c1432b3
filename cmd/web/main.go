package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/ivargas/misterio/db"
	"github.com/ivargas/misterio/internal/ai"
	"github.com/ivargas/misterio/internal/broker"
	"github.com/ivargas/misterio/internal/envstruct"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/ivargas/misterio/internal/logging"
	"github.com/ivargas/misterio/internal/pprofserver"
	"github.com/ivargas/misterio/internal/repositories"
	"github.com/joho/godotenv"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	htmx           *htmx.HTMX
	machine        *game.Machine
	store          *repositories.SessionStore
	progress       *broker.ChannelBroker[string, progressEvent]
}

// progressEvent is one loading progress update streamed to the browser while
// an AI-backed operation runs.
type progressEvent struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

type config struct {
	Addr         string `env:"MISTERIO_ADDR" envDefault:"localhost:4000"`
	PprofPort    string `env:"MISTERIO_PPROF_PORT" envDefault:":6060"`
	SqliteURL    string `env:"MISTERIO_SQLITE_URL" envDefault:"./misterio.sqlite"`
	AIBackend    string `env:"MISTERIO_AI_BACKEND" envDefault:"openai"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	GeminiAPIKey string `env:"GEMINI_API_KEY" envDefault:""`
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	// A missing .env file is fine, the environment may be configured directly.
	_ = godotenv.Load()

	ctx := context.Background()
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse config")
	}

	// pprof listens on localhost only so it is not open to the world.
	pprofserver.Launch(cfg.PprofPort, logger)

	dbs, err := db.NewDatabase(cfg.SqliteURL)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if err := dbs.Close(); err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(err))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to database")

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	mysteries, narrator, judge, imager, cleanup, err := newAIClients(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "initialise AI clients", slog.String("backend", cfg.AIBackend))
	}
	defer cleanup()

	store := repositories.NewSessionStore(ctx, dbs, logger)
	machine := game.NewMachine(store, mysteries, narrator, judge, imager, logger)

	autosaver := game.NewAutosaver(store, machine.ActiveSnapshot, game.AutosaveInterval, logger)
	go autosaver.Run(ctx)

	progress := broker.NewChannelBroker[string, progressEvent]()
	go progress.Start()
	defer progress.Stop()

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		htmx:           htmx.New(),
		machine:        machine,
		store:          store,
		progress:       progress,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

// newAIClients selects the text backend based on configuration. Image
// synthesis always runs on DALL-E since the Gemini SDK has no image surface.
func newAIClients(ctx context.Context, cfg config) (
	game.MysteryGenerator,
	game.TurnNarrator,
	game.SolutionJudge,
	game.ImageSynthesizer,
	func(),
	error,
) {
	imager := ai.NewImageClient(cfg.OpenAIAPIKey)
	switch cfg.AIBackend {
	case "openai":
		client := ai.NewClient(cfg.OpenAIAPIKey)
		return client, client, client, imager, func() {}, nil
	case "gemini":
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, nil, nil, nil, errors.Wrap(err, "create gemini client")
		}
		cleanup := func() { _ = client.Close() }
		return client, client, client, imager, cleanup, nil
	default:
		return nil, nil, nil, nil, nil, errors.New("unknown AI backend, expected openai or gemini")
	}
}
