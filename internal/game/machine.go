package game

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ivargas/misterio/internal/errors"
)

// SolveMarker is the literal prefix that turns a player input into a solution
// submission. The match is case-insensitive; the remainder is the proposed
// solution verbatim.
const SolveMarker = "SOLUCIÓN:"

// TurnResult is the narrative turn collaborator's reply to a player action.
// An empty NewClue means the turn surfaced no clue.
type TurnResult struct {
	Narration   string `json:"narration"`
	ImagePrompt string `json:"imagePrompt"`
	NewClue     string `json:"newClue"`
}

// Verdict is the solution judge collaborator's ruling on a proposed solution.
type Verdict struct {
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// MysteryGenerator authors a fresh mystery in the given locale.
type MysteryGenerator interface {
	GenerateMystery(ctx context.Context, locale string) (Mystery, error)
}

// TurnNarrator continues the story based on the transcript and a player action.
type TurnNarrator interface {
	NextTurn(ctx context.Context, history []ChatMessage, action string, locale string) (TurnResult, error)
}

// SolutionJudge compares a proposed solution against the secret one.
type SolutionJudge interface {
	JudgeSolution(ctx context.Context, history []ChatMessage, proposed, secret, locale string) (Verdict, error)
}

// ImageSynthesizer renders a scene image for a prompt. It returns an encoded
// image reference (a data URL). ErrNoImages signals that the upstream service
// returned zero images, which is usually caused by content filtering.
type ImageSynthesizer interface {
	SynthesizeImage(ctx context.Context, prompt string) (string, error)
}

// ErrNoImages is returned by image synthesizers when the service responds
// without any image payloads.
var ErrNoImages = errors.NewSentinel("image service returned no images")

// ErrSaveFailed marks persistence failures so the presentation layer can tell
// them apart from collaborator failures: on a save failure the turn is
// already committed in memory.
var ErrSaveFailed = errors.NewSentinel("session could not be saved")

// Saver persists a single session snapshot. Every save path of the machine
// goes through this one contract.
type Saver interface {
	SaveOne(ctx context.Context, session *Session) error
}

// Store persists snapshots and resolves them back by ID. The machine needs
// the read side so the active session is re-resolved at autosave time: a
// held pointer would survive deletion and go stale behind newer commits.
type Store interface {
	Saver
	Get(id string) (*Session, bool)
}

// Progress reports completion of a long-running operation to the presentation
// layer. A nil Progress is valid and reports nowhere.
type Progress func(percent int, message string)

func (p Progress) publish(percent int, message string) {
	if p != nil {
		p(percent, message)
	}
}

// Loading messages shown while the AI collaborators work, from the original game.
const (
	msgHuntingVictim = "Buscando un concejal desprevenido para ser la víctima..."
	msgPaintingScene = "Pintando la escena del crimen con pinceles de bits..."
	msgPlantingClues = "Colocando pistas falsas y un asesino astuto..."
	msgProcessing    = "Procesando tu jugada..."
)

// Machine owns the game session state transitions. It orchestrates the AI
// collaborators, stages each turn on a session clone, and persists committed
// snapshots through the Saver. At most one action per session is in flight at
// a time; further submissions are rejected as no-ops, not queued.
type Machine struct {
	store     Store
	mysteries MysteryGenerator
	narrator  TurnNarrator
	judge     SolutionJudge
	imager    ImageSynthesizer
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
	activeID string
}

// NewMachine wires a machine to its collaborators.
func NewMachine(
	store Store,
	mysteries MysteryGenerator,
	narrator TurnNarrator,
	judge SolutionJudge,
	imager ImageSynthesizer,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		store:     store,
		mysteries: mysteries,
		narrator:  narrator,
		judge:     judge,
		imager:    imager,
		logger:    logger.With("source", "Machine"),
		now:       time.Now,
		inFlight:  map[string]struct{}{},
	}
}

// Create authors a new mystery in the given locale, renders its opening
// image, and persists the resulting session. A failure in either step aborts
// the creation with no partial session persisted.
func (m *Machine) Create(ctx context.Context, locale string, report Progress) (*Session, error) {
	report.publish(10, msgHuntingVictim)
	mystery, err := m.mysteries.GenerateMystery(ctx, locale)
	if err != nil {
		return nil, errors.Wrap(err, "generate mystery", slog.String("locale", locale))
	}

	report.publish(50, msgPaintingScene)
	image, err := m.imager.SynthesizeImage(ctx, mystery.InitialImagePrompt)
	if err != nil {
		return nil, errors.Wrap(err, "synthesize opening image")
	}

	report.publish(90, msgPlantingClues)
	session := NewSession(mystery, image, m.now())
	if err = m.store.SaveOne(ctx, session); err != nil {
		return nil, errors.Wrap(errors.Join(ErrSaveFailed, err), "persist new session",
			slog.String("game_id", session.ID))
	}
	m.setActive(session)

	report.publish(100, "")
	m.logger.LogAttrs(ctx, slog.LevelInfo, "created session",
		slog.String("game_id", session.ID), slog.String("title", mystery.Title))
	return session, nil
}

// ParseSolveAction reports whether rawInput is a solution submission and, if
// so, returns the proposed solution with the marker stripped and trimmed.
func ParseSolveAction(rawInput string) (string, bool) {
	if len(rawInput) < len(SolveMarker) {
		return "", false
	}
	if !strings.EqualFold(rawInput[:len(SolveMarker)], SolveMarker) {
		return "", false
	}
	return strings.TrimSpace(rawInput[len(SolveMarker):]), true
}

// SubmitAction applies one player action to the session and returns the next
// committed snapshot.
//
// Blank input, a solved session, or an action already in flight for the same
// session make it a no-op: the current snapshot is returned unchanged and no
// collaborator is called. On any collaborator failure nothing is committed
// and the prior snapshot stays untouched. On success the new snapshot is
// persisted synchronously before it is returned.
func (m *Machine) SubmitAction(
	ctx context.Context,
	session *Session,
	rawInput string,
	locale string,
	report Progress,
) (*Session, error) {
	if strings.TrimSpace(rawInput) == "" || session.Solved {
		return session, nil
	}
	if !m.begin(session.ID) {
		return session, nil
	}
	defer m.finish(session.ID)

	report.publish(10, msgProcessing)

	var (
		next *Session
		err  error
	)
	if proposed, ok := ParseSolveAction(rawInput); ok {
		next, err = m.solve(ctx, session, rawInput, proposed, locale, report)
	} else {
		next, err = m.investigate(ctx, session, rawInput, locale, report)
	}
	if err != nil {
		return session, err
	}

	if err = m.store.SaveOne(ctx, next); err != nil {
		return next, errors.Wrap(errors.Join(ErrSaveFailed, err), "persist session",
			slog.String("game_id", next.ID))
	}
	m.setActive(next)

	report.publish(100, "")
	return next, nil
}

func (m *Machine) solve(
	ctx context.Context,
	session *Session,
	rawInput, proposed, locale string,
	report Progress,
) (*Session, error) {
	report.publish(30, msgProcessing)
	verdict, err := m.judge.JudgeSolution(ctx, session.History, proposed, session.Mystery.SecretSolution, locale)
	if err != nil {
		return nil, errors.Wrap(err, "judge solution", slog.String("game_id", session.ID))
	}
	report.publish(90, msgProcessing)

	narratorText := "Evaluación de la solución: " + verdict.Explanation
	next := session.Clone()
	next.History = append(next.History,
		ChatMessage{Speaker: SpeakerPlayer, Text: rawInput},
		ChatMessage{Speaker: SpeakerNarrator, Text: narratorText},
	)
	next.CurrentNarration += "\n\n" + narratorText
	next.Solved = verdict.IsCorrect
	return next, nil
}

func (m *Machine) investigate(
	ctx context.Context,
	session *Session,
	rawInput, locale string,
	report Progress,
) (*Session, error) {
	report.publish(25, msgProcessing)
	turn, err := m.narrator.NextTurn(ctx, session.History, rawInput, locale)
	if err != nil {
		return nil, errors.Wrap(err, "narrate turn", slog.String("game_id", session.ID))
	}

	// The narration must not be committed without its image: synthesize first,
	// stage the whole turn only after it succeeds.
	report.publish(60, msgProcessing)
	image, err := m.imager.SynthesizeImage(ctx, turn.ImagePrompt)
	if err != nil {
		return nil, errors.Wrap(err, "synthesize turn image", slog.String("game_id", session.ID))
	}
	report.publish(90, msgProcessing)

	next := session.Clone()
	next.History = append(next.History,
		ChatMessage{Speaker: SpeakerPlayer, Text: rawInput},
		ChatMessage{Speaker: SpeakerNarrator, Text: turn.Narration},
	)
	next.CurrentNarration += "\n\n" + turn.Narration
	if turn.NewClue != "" {
		next.Clues = append(next.Clues, turn.NewClue)
	}
	next.CurrentImage = image
	return next, nil
}

// ActiveSnapshot returns the store's latest committed snapshot of the most
// recently played session, or nil when no session is active or the active
// session has been deleted. The autosaver reads this at fire time; resolving
// through the store means it can neither resurrect a deleted session nor
// write an older snapshot over a newer committed one.
func (m *Machine) ActiveSnapshot() *Session {
	m.mu.Lock()
	id := m.activeID
	m.mu.Unlock()
	if id == "" {
		return nil
	}
	session, ok := m.store.Get(id)
	if !ok {
		return nil
	}
	return session
}

// ClearActive forgets the active session if it is the given one. Callers
// deleting a session use this so the autosaver stops tracking it.
func (m *Machine) ClearActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == id {
		m.activeID = ""
	}
}

func (m *Machine) setActive(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeID = session.ID
}

func (m *Machine) begin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[id]; busy {
		return false
	}
	m.inFlight[id] = struct{}{}
	return true
}

func (m *Machine) finish(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}
