package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ivargas/misterio/internal/game"
)

// fakeAI stands in for every AI collaborator with canned, deterministic
// replies so handler tests never touch the network. Setting turnErr or
// imageErr makes the matching collaborator fail.
type fakeAI struct {
	mu        sync.Mutex
	turnCount int

	turnErr  error
	imageErr error
}

var _ game.MysteryGenerator = (*fakeAI)(nil)
var _ game.TurnNarrator = (*fakeAI)(nil)
var _ game.SolutionJudge = (*fakeAI)(nil)
var _ game.ImageSynthesizer = (*fakeAI)(nil)

func (f *fakeAI) GenerateMystery(_ context.Context, _ string) (game.Mystery, error) {
	return game.Mystery{
		Title:              "El Expediente Final",
		InitialScene:       "El concejal fue hallado sin vida en la sala de comisiones.",
		InitialImagePrompt: "sala de comisiones en penumbra",
		SecretSolution:     "la secretaria de bloque, por el expediente adulterado",
	}, nil
}

func (f *fakeAI) NextTurn(_ context.Context, _ []game.ChatMessage, action, _ string) (game.TurnResult, error) {
	if f.turnErr != nil {
		return game.TurnResult{}, f.turnErr
	}
	f.mu.Lock()
	f.turnCount++
	n := f.turnCount
	f.mu.Unlock()
	return game.TurnResult{
		Narration:   fmt.Sprintf("Al %s descubrís algo inquietante.", action),
		ImagePrompt: "detective examinando la escena",
		NewClue:     fmt.Sprintf("Pista %d: una firma que no coincide", n),
	}, nil
}

func (f *fakeAI) JudgeSolution(_ context.Context, _ []game.ChatMessage, proposed, _, _ string) (game.Verdict, error) {
	correct := strings.Contains(strings.ToLower(proposed), "secretaria")
	return game.Verdict{
		IsCorrect:   correct,
		Explanation: "La firma adulterada señalaba a la secretaria de bloque.",
	}, nil
}

func (f *fakeAI) SynthesizeImage(_ context.Context, _ string) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return "data:image/png;base64,ZmFrZQ==", nil
}
