package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/lanternworks/lanternworks/internal/profile"
)

// Image is a generated illustration. Providers return either a hosted URL
// or inline base64 data; exactly one of URL and Data is set.
type Image struct {
	URL         string
	Data        []byte
	ContentType string
}

// ImageService generates illustrations from art-direction prompts.
type ImageService interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// ImageConfig represents image gateway configuration.
type ImageConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  int // Request timeout in seconds (default: 180)
}

// ImageConfigFromProfile derives the image gateway config from the runtime profile.
func ImageConfigFromProfile(p *profile.Profile) *ImageConfig {
	return &ImageConfig{
		Provider: p.ImageProvider,
		Model:    p.ImageModel,
		APIKey:   p.ImageAPIKey,
		BaseURL:  p.ImageBaseURL,
		Timeout:  p.LLMTimeout,
	}
}

type imageService struct {
	client  *openai.Client
	model   string
	timeout int
}

// NewImageService creates an image generation gateway. The same provider
// switch as the chat gateway applies, any OpenAI-compatible images
// endpoint works.
func NewImageService(cfg *ImageConfig) (ImageService, error) {
	client, err := newClient(cfg.Provider, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180
	}

	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}

	return &imageService{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

func (s *imageService) Generate(ctx context.Context, prompt string) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("gateway: image request", "model", s.model, "prompt_length", len(prompt))

	startTime := time.Now()

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:          s.model,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		slog.Error("gateway: image request failed", "error", err)
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty response from image model")
	}

	slog.Debug("gateway: image response received", "duration_ms", time.Since(startTime).Milliseconds())

	img := &Image{ContentType: "image/png"}
	data := resp.Data[0]
	switch {
	case data.URL != "":
		img.URL = data.URL
	case data.B64JSON != "":
		decoded, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		img.Data = decoded
	default:
		return nil, fmt.Errorf("image response carried neither url nor data")
	}
	return img, nil
}
