package infra

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/velora/catalog-service/config"
	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/jobs"
)

// CredentialSource resolves a per-owner AI credential override. It returns
// (nil, nil) when the owner has no override.
type CredentialSource interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.AICredential, error)
}

// clientKey identifies one cached generation client. Keying by credential
// version makes a credential update invalidate the owner's cached client on
// the next lookup instead of serving the stale key forever.
type clientKey struct {
	OwnerID uuid.UUID
	Version int
}

// GenerationFactory builds and caches per-owner generation clients. Owners
// without a stored credential share the process-wide default client. It
// implements jobs.GeneratorFactory.
type GenerationFactory struct {
	credentials  CredentialSource
	defaultKey   string
	defaultModel string
	imageEnabled bool

	mu      sync.Mutex
	clients map[clientKey]*GenerationClient
}

func InitGenerationFactory(cfg *config.EnvConfig, credentials CredentialSource) *GenerationFactory {
	return &GenerationFactory{
		credentials:  credentials,
		defaultKey:   cfg.OpenAI.APIKey,
		defaultModel: cfg.OpenAI.Model,
		imageEnabled: cfg.OpenAI.Image,
		clients:      make(map[clientKey]*GenerationClient),
	}
}

// ClientFor returns the generation client for one owner: the owner's stored
// credential when present, else the process default.
func (f *GenerationFactory) ClientFor(ctx context.Context, ownerID uuid.UUID) (jobs.Generator, error) {
	cred, err := f.credentials.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential for owner %s: %w", ownerID, err)
	}

	apiKey := f.defaultKey
	model := f.defaultModel
	version := 0
	if cred != nil {
		apiKey = cred.APIKey
		if cred.Model != "" {
			model = cred.Model
		}
		version = cred.Version
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no generation credential available for owner %s", ownerID)
	}

	key := clientKey{OwnerID: ownerID, Version: version}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[key]; ok {
		return client, nil
	}

	// Drop stale versions for this owner before caching the fresh client.
	for cached := range f.clients {
		if cached.OwnerID == ownerID {
			delete(f.clients, cached)
		}
	}

	client := &GenerationClient{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		model:        model,
		imageEnabled: f.imageEnabled,
	}
	f.clients[key] = client

	return client, nil
}

// GenerationClient performs text and image generation against the OpenAI
// API. It implements jobs.Generator.
type GenerationClient struct {
	client       openai.Client
	model        string
	imageEnabled bool
}

// Generate runs one chat completion for the request prompt, with any
// reference images attached as image content parts, plus an image
// generation call when the request asks for media.
func (c *GenerationClient) Generate(ctx context.Context, req jobs.GenerationRequest) (*jobs.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{userMessage(req)},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	result := &jobs.GenerationResult{
		Text: completion.Choices[0].Message.Content,
	}

	if req.WantImage && c.imageEnabled {
		img, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt:         req.Prompt,
			Model:          openai.ImageModelDallE3,
			N:              openai.Int(1),
			Size:           openai.ImageGenerateParamsSize1024x1024,
			ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		})
		if err != nil {
			return nil, fmt.Errorf("image generation failed: %w", err)
		}
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("image generation returned no data")
		}
		result.MediaB64 = img.Data[0].B64JSON
	}

	return result, nil
}

// userMessage builds the user turn for one request. Reference images ride
// along as image_url content parts next to the prompt text; the API accepts
// both https URLs and data URIs there.
func userMessage(req jobs.GenerationRequest) openai.ChatCompletionMessageParamUnion {
	if len(req.ReferenceImages) == 0 {
		return openai.UserMessage(req.Prompt)
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.ReferenceImages)+1)
	parts = append(parts, openai.TextContentPart(req.Prompt))
	for _, ref := range req.ReferenceImages {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: ref,
		}))
	}
	return openai.UserMessageParts(parts...)
}
