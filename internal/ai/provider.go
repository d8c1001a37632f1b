// Package ai refines the deterministic deck through a language model.
// Providers are detected from the model string; the deterministic deck
// always remains the fallback in hybrid mode.
package ai

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/ostendo/internal/common"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderClaude uses the Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderGemini uses the Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderLocal uses a llama.cpp-compatible local server
	ProviderLocal ProviderType = "local"
)

// ContentRequest is a provider-agnostic generation request
type ContentRequest struct {
	Prompt            string
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
}

// ContentResponse is a provider-agnostic generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// ProviderFactory creates clients lazily and routes requests to the
// provider detected from the model string.
type ProviderFactory struct {
	claudeConfig *common.ClaudeConfig
	geminiConfig *common.GeminiConfig
	localConfig  *common.LocalModelConfig
	defaultModel string
	logger       arbor.ILogger

	claudeClient anthropic.Client
	claudeReady  bool
	geminiClient *genai.Client

	limiters map[ProviderType]*rate.Limiter
}

// NewProviderFactory creates a provider factory from configuration
func NewProviderFactory(cfg *common.Config, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		claudeConfig: &cfg.Claude,
		geminiConfig: &cfg.Gemini,
		localConfig:  &cfg.Local,
		defaultModel: cfg.AI.Model,
		logger:       logger,
		limiters: map[ProviderType]*rate.Limiter{
			ProviderClaude: newLimiter(cfg.Claude.RateLimit, time.Second),
			ProviderGemini: newLimiter(cfg.Gemini.RateLimit, 4*time.Second),
			ProviderLocal:  rate.NewLimiter(rate.Inf, 1),
		},
	}
}

func newLimiter(interval string, fallback time.Duration) *rate.Limiter {
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		d = fallback
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-haiku-3-5-20241022" -> Claude
// - "claude/..." or "anthropic/..." -> Claude (with prefix)
// - "gemini-3-flash-preview" -> Gemini
// - "gemini/..." or "google/..." -> Gemini (with prefix)
// - "local" or "local/..." -> local llama.cpp server
// - Empty string -> uses the configured default model
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		model = f.defaultModel
	}
	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}
	if model == "local" || strings.HasPrefix(model, "local/") {
		return ProviderLocal
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderClaude
}

// NormalizeModel removes a provider prefix from the model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/", "local/"}
	lower := strings.ToLower(model)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return model[len(prefix):]
		}
	}
	if lower == "local" {
		return ""
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderGemini:
		return f.geminiConfig.Model
	case ProviderLocal:
		return f.localConfig.Model
	default:
		return f.claudeConfig.Model
	}
}

// GenerateContent generates content using the provider detected from the
// request model, honoring the per-provider rate limit.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	model := request.Model
	if model == "" {
		model = f.defaultModel
	}
	provider := f.DetectProvider(model)
	model = f.NormalizeModel(model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Msg("Generating content with provider")

	if err := f.limiters[provider].Wait(ctx); err != nil {
		return nil, err
	}

	switch provider {
	case ProviderGemini:
		return f.generateWithGemini(ctx, request, model)
	case ProviderLocal:
		return f.generateWithLocal(ctx, request, model)
	default:
		return f.generateWithClaude(ctx, request, model)
	}
}

// Close releases all provider clients
func (f *ProviderFactory) Close() error {
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}
