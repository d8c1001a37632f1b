package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

const (
	maxMergedBullets = 8
	maxMergedClaims  = 10
	maxNotesChars    = 600
)

const refineSystemPrompt = "You improve the wording of presentation slides. " +
	"Respond with JSON only, no prose and no code fences."

// Refiner runs the optional model pass over deterministic slides and
// merges the response back field by field.
type Refiner struct {
	factory *ProviderFactory
	mode    common.AIMode
	model   string
	logger  arbor.ILogger
}

// NewRefiner creates a refiner from configuration
func NewRefiner(cfg *common.Config, logger arbor.ILogger) *Refiner {
	return &Refiner{
		factory: NewProviderFactory(cfg, logger),
		mode:    cfg.AI.Mode,
		model:   cfg.AI.Model,
		logger:  logger,
	}
}

// Close releases provider clients
func (r *Refiner) Close() error {
	return r.factory.Close()
}

// Refine rewrites slide wording in place using the configured model.
// In hybrid mode any backend or schema failure keeps the deterministic
// slides and is reported as a warning; in ai mode it is fatal.
func (r *Refiner) Refine(ctx context.Context, payload *models.Payload) ([]string, error) {
	if r.mode == common.AIModeOff {
		return nil, nil
	}

	prompt, err := buildRefinePrompt(payload)
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to build refinement prompt", err)
	}

	resp, err := r.factory.GenerateContent(ctx, &ContentRequest{
		Prompt:            prompt,
		Model:             r.model,
		SystemInstruction: refineSystemPrompt,
	})
	if err != nil {
		return r.fallback(payload, common.NewAppError(common.CodeModelNotAvailable,
			"model backend request failed", err).
			WithHint("Check API keys and network, or rerun with --ai-mode off"))
	}

	merged, err := mergeRefinement(payload.Slides, resp.Text)
	if err != nil {
		return r.fallback(payload, err)
	}

	r.logger.Info().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Msg("Merged model refinement into slides")
	payload.Slides = merged
	return nil, nil
}

// fallback decides whether a refinement failure is survivable
func (r *Refiner) fallback(payload *models.Payload, cause error) ([]string, error) {
	if r.mode != common.AIModeStrict {
		r.logger.Warn().Err(cause).Msg("Keeping deterministic slides")
		return []string{fmt.Sprintf("AI enhancement skipped: %v", cause)}, nil
	}
	return nil, cause
}

// refinePromptSpec is the JSON envelope sent to the model
type refinePromptSpec struct {
	Task         string            `json:"task"`
	Rules        []string          `json:"rules"`
	OutputSchema map[string]any    `json:"output_schema"`
	Slides       []models.Slide    `json:"slides"`
	Evidence     []models.Evidence `json:"evidence"`
}

func buildRefinePrompt(payload *models.Payload) (string, error) {
	spec := refinePromptSpec{
		Task: "Improve slide wording while staying faithful to evidence.",
		Rules: []string{
			"Return JSON only.",
			"Do not add new unsupported claims.",
			"Keep the same slide ids.",
			"Preserve factual meaning.",
			"Avoid fluff and hype terms.",
		},
		OutputSchema: map[string]any{
			"slides": []map[string]any{
				{
					"id":      "string",
					"title":   "optional string",
					"bullets": []string{"optional list of strings"},
					"notes":   "optional string",
				},
			},
		},
		Slides:   payload.Slides,
		Evidence: payload.Evidence,
	}

	data, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mergeRefinement applies model output to the deterministic slides.
// Updates are matched by slide id; unknown ids and wrongly typed fields
// are ignored. The slide set itself never grows or shrinks.
func mergeRefinement(slides []models.Slide, responseText string) ([]models.Slide, error) {
	raw := extractJSONObject(responseText)
	if raw == "" || !gjson.Valid(raw) {
		return nil, common.NewAppError(common.CodeParseError,
			"model response is not valid JSON", nil).
			WithHint("Rerun, or switch to hybrid mode to keep deterministic output")
	}

	updates := gjson.Get(raw, "slides")
	if !updates.IsArray() {
		return nil, common.NewAppError(common.CodeParseError,
			"model response does not include a valid 'slides' list", nil)
	}

	merged := make([]models.Slide, len(slides))
	copy(merged, slides)
	index := make(map[string]int, len(merged))
	for i := range merged {
		index[merged[i].ID] = i
	}

	for _, update := range updates.Array() {
		if !update.IsObject() {
			continue
		}
		pos, ok := index[update.Get("id").String()]
		if !ok {
			continue
		}
		target := &merged[pos]

		if title := update.Get("title"); title.Type == gjson.String && strings.TrimSpace(title.String()) != "" {
			target.Title = strings.TrimSpace(title.String())
		}

		if bullets := update.Get("bullets"); bullets.IsArray() {
			var cleaned []string
			for _, item := range bullets.Array() {
				if item.Type != gjson.String {
					continue
				}
				if text := strings.TrimSpace(item.String()); text != "" {
					cleaned = append(cleaned, text)
				}
			}
			if len(cleaned) > 0 {
				if len(cleaned) > maxMergedBullets {
					cleaned = cleaned[:maxMergedBullets]
				}
				target.Bullets = cleaned
			}
		}

		if claims := update.Get("claims"); claims.IsArray() {
			if cleaned := mergeClaims(claims.Array()); len(cleaned) > 0 {
				target.Claims = cleaned
			}
		}

		if notes := update.Get("notes"); notes.Type == gjson.String {
			text := strings.TrimSpace(notes.String())
			if len(text) > maxNotesChars {
				text = text[:maxNotesChars]
			}
			target.Notes = text
		}
	}

	return merged, nil
}

func mergeClaims(updates []gjson.Result) []models.Claim {
	var cleaned []models.Claim
	for _, claim := range updates {
		if len(cleaned) == maxMergedClaims {
			break
		}
		if !claim.IsObject() {
			continue
		}
		text := strings.TrimSpace(claim.Get("text").String())
		if text == "" {
			continue
		}
		var refs []string
		for _, ref := range claim.Get("evidence_refs").Array() {
			if r := strings.TrimSpace(ref.String()); r != "" {
				refs = append(refs, r)
			}
		}
		confidence := claim.Get("confidence").Float()
		if confidence <= 0 {
			confidence = 0.8
		}
		cleaned = append(cleaned, models.Claim{
			Text:         text,
			EvidenceRefs: refs,
			Confidence:   confidence,
		})
	}
	return cleaned
}

// extractJSONObject tolerates prose and code fences around the JSON body
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
