package game

import (
	"fmt"
	"time"
)

// Speaker identifies who authored a chat message. The values match the roles
// of the original save format so that old saved-game blobs keep loading.
type Speaker string

const (
	SpeakerPlayer   Speaker = "user"
	SpeakerNarrator Speaker = "model"
)

// Mystery is the puzzle a session is built around. Immutable once generated.
type Mystery struct {
	Title              string `json:"title"`
	InitialScene       string `json:"initialScene"`
	InitialImagePrompt string `json:"initialImagePrompt"`
	SecretSolution     string `json:"secretSolution"`
}

// ChatMessage is one entry of the append-only session transcript. The full
// transcript is replayed verbatim as context for every AI call.
type ChatMessage struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"text"`
}

// Session is one player's in-progress or completed mystery playthrough.
//
// History grows by exactly two messages per successful action. Clues only
// grow. Solved transitions false to true exactly once and never reverts.
// CurrentNarration is the narrator-authored text joined in history order,
// redundant with History but kept for direct display.
type Session struct {
	ID               string        `json:"id"`
	Mystery          Mystery       `json:"mystery"`
	History          []ChatMessage `json:"chatHistory"`
	Clues            []string      `json:"clues"`
	CurrentImage     string        `json:"currentImage"`
	CurrentNarration string        `json:"currentNarration"`
	Solved           bool          `json:"isSolved"`
	// CreatedAt is a unix millisecond timestamp, set once at creation. The
	// session ID is derived from it.
	CreatedAt int64 `json:"createdAt"`
}

// NewSession constructs a fresh session around the given mystery. The opening
// scene becomes the first narrator message.
func NewSession(mystery Mystery, image string, createdAt time.Time) *Session {
	millis := createdAt.UnixMilli()
	return &Session{
		ID:      fmt.Sprintf("game_%d", millis),
		Mystery: mystery,
		History: []ChatMessage{
			{Speaker: SpeakerNarrator, Text: mystery.InitialScene},
		},
		Clues:            []string{},
		CurrentImage:     image,
		CurrentNarration: mystery.InitialScene,
		Solved:           false,
		CreatedAt:        millis,
	}
}

// Clone returns a deep copy of the session. Turn mutations are staged on a
// clone and only swapped in when the whole turn succeeds.
func (s *Session) Clone() *Session {
	clone := *s
	clone.History = append([]ChatMessage(nil), s.History...)
	clone.Clues = append([]string(nil), s.Clues...)
	return &clone
}

// Created returns the creation timestamp as a time.Time.
func (s *Session) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}
