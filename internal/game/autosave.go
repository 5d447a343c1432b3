package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/ivargas/misterio/internal/errors"
)

// AutosaveInterval is how often the active session is re-persisted while the
// server runs.
const AutosaveInterval = 2 * time.Minute

// Autosaver periodically persists the latest snapshot of the active session.
// It uses the same Saver contract as every other save path, so autosaves have
// no special semantics. The snapshot callback is evaluated at fire time,
// which means a save can never overwrite newer state with an older copy.
type Autosaver struct {
	saver    Saver
	snapshot func() *Session
	interval time.Duration
	logger   *slog.Logger
}

func NewAutosaver(saver Saver, snapshot func() *Session, interval time.Duration, logger *slog.Logger) *Autosaver {
	if interval <= 0 {
		interval = AutosaveInterval
	}
	return &Autosaver{
		saver:    saver,
		snapshot: snapshot,
		interval: interval,
		logger:   logger.With("source", "Autosaver"),
	}
}

// Run ticks until ctx is cancelled. Save failures are logged and the ticker
// keeps going; the next tick is the retry.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			session := a.snapshot()
			if session == nil {
				continue
			}
			if err := a.saver.SaveOne(ctx, session); err != nil {
				a.logger.LogAttrs(ctx, slog.LevelError, "autosave failed",
					slog.String("game_id", session.ID), errors.SlogError(err))
				continue
			}
			a.logger.LogAttrs(ctx, slog.LevelDebug, "autosaved session", slog.String("game_id", session.ID))
		}
	}
}
