package ai

import (
	"context"

	"github.com/ivargas/misterio/internal/errors"
	"github.com/ivargas/misterio/internal/game"
	"github.com/sashabaranov/go-openai"
)

// imageStyleSuffix pins every scene render to the game's visual style.
const imageStyleSuffix = ", photorealistic, cinematic lighting, noir style, high detail"

// ImageClient renders scene images with DALL-E and returns them as data URLs
// so they can be persisted inside the session blob.
type ImageClient struct {
	client *openai.Client
}

var _ game.ImageSynthesizer = (*ImageClient)(nil)

func NewImageClient(apiKey string) *ImageClient {
	return &ImageClient{
		client: openai.NewClient(apiKey),
	}
}

func (c *ImageClient) SynthesizeImage(ctx context.Context, prompt string) (string, error) {
	response, err := c.client.CreateImage(ctx, openai.ImageRequest{ //nolint:exhaustruct // this is better for readability
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt + imageStyleSuffix,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return "", errors.Wrap(err, "create image")
	}

	// Zero images with a successful response is distinct from a transport
	// error: it is usually the upstream content filter eating the prompt.
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return "", game.ErrNoImages
	}

	return "data:image/png;base64," + response.Data[0].B64JSON, nil
}
