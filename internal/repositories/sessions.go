package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/ivargas/misterio/db"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
)

// savedGamesKey is the fixed name of the blob holding every saved game. It is
// kept from the original save format so existing saves stay loadable.
const savedGamesKey = "mystery_cordoba_saved_games"

// tutorialSeenPrefix prefixes the per-session flag recording whether the
// onboarding tutorial has been shown.
const tutorialSeenPrefix = "tutorial_seen_"

// SessionStore is the durable mapping from game ID to session state. The
// whole mapping lives in a single JSON blob under a fixed key: every save
// rewrites the full blob. That read-modify-write pattern is only safe because
// mutations are serialized on the store mutex; a multi-writer deployment
// would need per-key transactions instead.
type SessionStore struct {
	dbs    *db.Database
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*game.Session
}

// NewSessionStore loads the saved-games blob once and keeps the mapping in
// memory as the single source of truth. A missing or corrupt blob is treated
// as "no saved games" and only logged.
func NewSessionStore(ctx context.Context, dbs *db.Database, logger *slog.Logger) *SessionStore {
	store := &SessionStore{
		dbs:    dbs,
		logger: logger.With("source", "SessionStore"),
	}
	store.sessions = store.LoadAll(ctx)
	return store
}

// LoadAll reads the saved-games blob from durable storage. Absent or
// unparsable blobs yield an empty mapping; the parse failure is logged, never
// surfaced.
func (s *SessionStore) LoadAll(ctx context.Context) map[string]*game.Session {
	sessions := map[string]*game.Session{}

	var blob string
	stmt := `SELECT value FROM kv WHERE key = ?`
	err := s.dbs.ReadOnly.QueryRowContext(ctx, stmt, savedGamesKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return sessions
	}
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "could not read saved games, starting empty",
			errors.SlogError(err))
		return sessions
	}

	if err = json.Unmarshal([]byte(blob), &sessions); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "corrupt saved games blob, starting empty",
			errors.SlogError(err))
		return map[string]*game.Session{}
	}

	return sessions
}

// SaveOne merges the session into the mapping by ID and rewrites the entire
// blob. A write failure propagates to the caller; there is no retry.
func (s *SessionStore) SaveOne(ctx context.Context, session *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	if err := s.writeAll(ctx); err != nil {
		return errors.Wrap(err, "save session", slog.String("game_id", session.ID))
	}
	return nil
}

// DeleteOne removes the session and rewrites the blob. Confirmation is the
// caller's responsibility. The session's tutorial flag is removed as well.
func (s *SessionStore) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	if err := s.writeAll(ctx); err != nil {
		return errors.Wrap(err, "delete session", slog.String("game_id", id))
	}

	stmt := `DELETE FROM kv WHERE key = ?`
	if _, err := s.dbs.ReadWrite.ExecContext(ctx, stmt, tutorialSeenPrefix+id); err != nil {
		return errors.Wrap(err, "delete tutorial flag", slog.String("game_id", id))
	}
	return nil
}

// Get returns the current in-memory snapshot for the given game ID.
func (s *SessionStore) Get(id string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

// List returns the saved sessions ordered newest first.
func (s *SessionStore) List() []*game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*game.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt > sessions[j].CreatedAt
	})
	return sessions
}

// TutorialSeen reports whether the onboarding tutorial has been shown for the
// given game.
func (s *SessionStore) TutorialSeen(ctx context.Context, id string) (bool, error) {
	var value string
	stmt := `SELECT value FROM kv WHERE key = ?`
	err := s.dbs.ReadOnly.QueryRowContext(ctx, stmt, tutorialSeenPrefix+id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read tutorial flag", slog.String("game_id", id))
	}
	return value == "true", nil
}

// MarkTutorialSeen records that the onboarding tutorial has been shown.
func (s *SessionStore) MarkTutorialSeen(ctx context.Context, id string) error {
	stmt := `INSERT INTO kv (key, value) VALUES (?, 'true')
	ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	if _, err := s.dbs.ReadWrite.ExecContext(ctx, stmt, tutorialSeenPrefix+id); err != nil {
		return errors.Wrap(err, "write tutorial flag", slog.String("game_id", id))
	}
	return nil
}

// writeAll serializes the whole mapping and upserts it under the fixed key.
// Callers hold the store mutex.
func (s *SessionStore) writeAll(ctx context.Context) error {
	blob, err := json.Marshal(s.sessions)
	if err != nil {
		return errors.Wrap(err, "marshal saved games")
	}

	stmt := `INSERT INTO kv (key, value) VALUES (@key, @value)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	params := []any{
		sql.Named("key", savedGamesKey),
		sql.Named("value", string(blob)),
	}
	if _, err = s.dbs.ReadWrite.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "write saved games blob")
	}
	return nil
}
