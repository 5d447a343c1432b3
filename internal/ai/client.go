package ai

import (
	"context"
	"encoding/json"

	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/sashabaranov/go-openai"
)

const maxTokens = 4096

// Client implements the three text collaborators of the game (mystery
// generation, narrative turns, solution judgement) on the OpenAI chat
// completion API with JSON response mode. Malformed replies are hard failures.
type Client struct {
	client *openai.Client
}

var (
	_ game.MysteryGenerator = (*Client)(nil)
	_ game.TurnNarrator     = (*Client)(nil)
	_ game.SolutionJudge    = (*Client)(nil)
)

func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
	}
}

func (c *Client) GenerateMystery(ctx context.Context, locale string) (game.Mystery, error) {
	var mystery game.Mystery
	if err := c.completeJSON(ctx, mysteryPrompt(locale), &mystery); err != nil {
		return game.Mystery{}, errors.Wrap(err, "generate mystery")
	}
	return mystery, nil
}

func (c *Client) NextTurn(
	ctx context.Context,
	history []game.ChatMessage,
	action string,
	locale string,
) (game.TurnResult, error) {
	var turn game.TurnResult
	if err := c.completeJSON(ctx, turnPrompt(history, action, locale), &turn); err != nil {
		return game.TurnResult{}, errors.Wrap(err, "narrate turn")
	}
	return turn, nil
}

func (c *Client) JudgeSolution(
	ctx context.Context,
	history []game.ChatMessage,
	proposed, secret, locale string,
) (game.Verdict, error) {
	// The transcript is passed as assistant context so the judge can weigh the
	// player's reasoning against what the story actually revealed.
	var verdict game.Verdict
	prompt := historyTranscript(history) + "\n\n" + judgePrompt(proposed, secret, locale)
	if err := c.completeJSON(ctx, prompt, &verdict); err != nil {
		return game.Verdict{}, errors.Wrap(err, "judge solution")
	}
	return verdict, nil
}

func (c *Client) completeJSON(ctx context.Context, prompt string, v any) error {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     openai.GPT3Dot5Turbo1106,
			MaxTokens: maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return errors.New("chat completion returned no choices")
	}
	return decodeReply(completion.Choices[0].Message.Content, v)
}

// decodeReply parses a model reply that must be exactly one JSON object.
func decodeReply(reply string, v any) error {
	if err := json.Unmarshal([]byte(reply), v); err != nil {
		return errors.Wrap(err, "malformed model reply")
	}
	return nil
}
