package ai

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// Schemas constrain the Gemini replies to the exact JSON shapes the game
// expects.
var (
	mysterySchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":              {Type: genai.TypeString},
			"initialScene":       {Type: genai.TypeString},
			"initialImagePrompt": {Type: genai.TypeString},
			"secretSolution":     {Type: genai.TypeString},
		},
	}
	turnSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"narration":   {Type: genai.TypeString},
			"imagePrompt": {Type: genai.TypeString},
			"newClue":     {Type: genai.TypeString},
		},
	}
	verdictSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isCorrect":   {Type: genai.TypeBoolean},
			"explanation": {Type: genai.TypeString},
		},
	}
)

// GeminiClient implements the three text collaborators on the Gemini API with
// schema-constrained JSON responses. Image synthesis stays on the dedicated
// image client; generative-ai-go has no image generation surface.
type GeminiClient struct {
	client *genai.Client
}

var (
	_ game.MysteryGenerator = (*GeminiClient)(nil)
	_ game.TurnNarrator     = (*GeminiClient)(nil)
	_ game.SolutionJudge    = (*GeminiClient)(nil)
)

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() error {
	if err := c.client.Close(); err != nil {
		return errors.Wrap(err, "close gemini client")
	}
	return nil
}

func (c *GeminiClient) GenerateMystery(ctx context.Context, locale string) (game.Mystery, error) {
	var mystery game.Mystery
	// High temperature so consecutive games don't retell the same murder.
	temperature := float32(1.0)
	if err := c.generateJSON(ctx, mysteryPrompt(locale), mysterySchema, &temperature, &mystery); err != nil {
		return game.Mystery{}, errors.Wrap(err, "generate mystery")
	}
	return mystery, nil
}

func (c *GeminiClient) NextTurn(
	ctx context.Context,
	history []game.ChatMessage,
	action string,
	locale string,
) (game.TurnResult, error) {
	var turn game.TurnResult
	if err := c.generateJSON(ctx, turnPrompt(history, action, locale), turnSchema, nil, &turn); err != nil {
		return game.TurnResult{}, errors.Wrap(err, "narrate turn")
	}
	return turn, nil
}

func (c *GeminiClient) JudgeSolution(
	ctx context.Context,
	history []game.ChatMessage,
	proposed, secret, locale string,
) (game.Verdict, error) {
	var verdict game.Verdict
	prompt := historyTranscript(history) + "\n\n" + judgePrompt(proposed, secret, locale)
	if err := c.generateJSON(ctx, prompt, verdictSchema, nil, &verdict); err != nil {
		return game.Verdict{}, errors.Wrap(err, "judge solution")
	}
	return verdict, nil
}

func (c *GeminiClient) generateJSON(
	ctx context.Context,
	prompt string,
	schema *genai.Schema,
	temperature *float32,
	v any,
) error {
	model := c.client.GenerativeModel(geminiModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema
	if temperature != nil {
		model.SetTemperature(*temperature)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return errors.Wrap(err, "generate content")
	}

	var reply string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				reply += string(text)
			}
		}
	}
	if reply == "" {
		return errors.New("gemini returned no text candidates")
	}
	return decodeReply(reply, v)
}
