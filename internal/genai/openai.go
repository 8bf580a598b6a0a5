package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const classifySystemPrompt = `You look at a single raster image of a rough freehand sketch, possibly layered over an existing picture. ` +
	`Decide what the user wants and answer with one JSON object and nothing else. ` +
	`Either {"actionType":"generate"|"edit"|"execute","imagePrompt":"...","description":"..."} ` +
	`to produce or change a picture, or {"emoji":"x","behaviorDescription":"...","action":"none"|"delete"|"reflect"|"enlarge"} ` +
	`when the sketch depicts a small symbolic object. Keep imagePrompt vivid and self-contained.`

const editOptionsSystemPrompt = `The image shows freehand annotation strokes drawn over an existing picture. ` +
	`Propose between two and four short edit instructions the user might mean, as a JSON array of strings. ` +
	`Answer with the JSON array and nothing else.`

// Client implements Planner and Painter on the OpenAI API.
type Client struct {
	api        *openai.Client
	chatModel  string
	imageModel string
	log        *zap.Logger
}

// ClientConfig selects the models the client talks to.
type ClientConfig struct {
	APIKey     string
	ChatModel  string
	ImageModel string
}

// NewClient builds a Client. The logger may not be nil; pass zap.NewNop()
// when logging is unwanted.
func NewClient(cfg ClientConfig, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: API key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	return &Client{
		api:        openai.NewClient(cfg.APIKey),
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		log:        log,
	}, nil
}

// Classify sends the reference image to the chat model and parses the plan.
// Malformed responses degrade to DefaultPlan; only transport failures are
// returned as errors.
func (c *Client) Classify(ctx context.Context, referencePNG []byte) (Plan, error) {
	raw, err := c.describe(ctx, classifySystemPrompt, referencePNG)
	if err != nil {
		return Plan{}, fmt.Errorf("classify: %w", err)
	}
	plan := ParsePlan(raw)
	c.log.Debug("classified sketch",
		zap.String("type", string(plan.Type)),
		zap.String("action", plan.Action))
	return plan, nil
}

// EditOptions asks for a short menu of candidate edit instructions.
func (c *Client) EditOptions(ctx context.Context, referencePNG []byte) ([]string, error) {
	raw, err := c.describe(ctx, editOptionsSystemPrompt, referencePNG)
	if err != nil {
		return nil, fmt.Errorf("edit options: %w", err)
	}
	return ParseEditOptions(raw), nil
}

func (c *Client) describe(ctx context.Context, system string, png []byte) (string, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	c.log.Debug("completion received",
		zap.String("model", c.chatModel),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

// Generate produces one image for prompt. The reference image, when present,
// is folded into the request as additional guidance; partial results are not
// requested.
func (c *Client) Generate(ctx context.Context, prompt string, referencePNG []byte) ([]byte, error) {
	if referencePNG != nil {
		// The create endpoint takes no image input, so route referenced
		// generations through the edit endpoint instead.
		return c.Edit(ctx, referencePNG, prompt)
	}
	start := time.Now()
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("generate image: empty response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("generate image: decode payload: %w", err)
	}
	c.log.Info("image generated",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

// Edit rewrites sourcePNG according to prompt. Only a single source image is
// honored.
func (c *Client) Edit(ctx context.Context, sourcePNG []byte, prompt string) ([]byte, error) {
	src, cleanup, err := tempImageFile(sourcePNG)
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	defer cleanup()

	start := time.Now()
	resp, err := c.api.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          src,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("edit image: empty response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("edit image: decode payload: %w", err)
	}
	c.log.Info("image edited",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

// tempImageFile stages png bytes in a file because the edit endpoint streams
// a named multipart part. The caller must invoke cleanup.
func tempImageFile(png []byte) (*os.File, func(), error) {
	f, err := os.CreateTemp("", "inkdeck-edit-*.png")
	if err != nil {
		return nil, nil, err
	}
	name := f.Name()
	if _, err := f.Write(png); err != nil {
		f.Close()
		os.Remove(name)
		return nil, nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(name)
		return nil, nil, err
	}
	cleanup := func() {
		f.Close()
		if err := os.Remove(name); err != nil {
			// Leaked temp files are harmless; mention them anyway.
			fmt.Fprintf(os.Stderr, "inkdeck: remove %s: %v\n", filepath.Base(name), err)
		}
	}
	return f, cleanup, nil
}
