// Package studio holds the in-memory editing state served by the local
// workspace API. All reads and writes go through one mutex.
package studio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/pipeline"
	"github.com/ternarybob/ostendo/internal/quality"
	"github.com/ternarybob/ostendo/internal/render"
	"github.com/ternarybob/ostendo/internal/session"
	"github.com/ternarybob/ostendo/internal/visuals"
)

const (
	maxPatchTitleChars   = 300
	maxPatchBullets      = 10
	maxPatchNotesChars   = 800
	maxPatchClaims       = 12
	maxPatchClaimChars   = 600
	maxPatchRefs         = 12
	maxPatchVisuals      = 2
	maxPatchCaptionChars = 240
)

// SlidePatch is one incoming slide edit. Nil fields are left untouched.
type SlidePatch struct {
	ID      string           `json:"id"`
	Title   *string          `json:"title,omitempty"`
	Bullets *[]string        `json:"bullets,omitempty"`
	Notes   *string          `json:"notes,omitempty"`
	Claims  *[]models.Claim  `json:"claims,omitempty"`
	Visuals *[]models.Visual `json:"visuals,omitempty"`
}

// ContextInfo is the read-model returned by the context endpoint
type ContextInfo struct {
	SchemaVersion string                `json:"schema_version"`
	Project       models.ProjectScan    `json:"project"`
	Git           models.GitContext     `json:"git"`
	Quality       *models.QualityReport `json:"quality"`
	ReadOnly      bool                  `json:"read_only"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// ExportResult names the files written by an export request
type ExportResult struct {
	Format string   `json:"format"`
	Paths  []string `json:"paths"`
}

// State is the studio working set: the generated payload plus the
// persisted session, guarded by a single mutex.
type State struct {
	mu sync.Mutex

	config      *common.Config
	projectRoot string
	readOnly    bool
	logger      arbor.ILogger

	payload *models.Payload
	session *models.Session
	store   *session.Store
	events  *Hub
}

// NewState generates the working payload for the project and loads the
// persisted session. The AI pass is disabled for studio startup so the
// workspace opens fast and deterministic.
func NewState(ctx context.Context, cfg *common.Config, storage interfaces.StorageManager, projectRoot string, readOnly bool, logger arbor.ILogger) (*State, error) {
	studioCfg := common.DeepCloneConfig(cfg)
	studioCfg.AI.Mode = common.AIModeOff
	studioCfg.Generate.Strict = false

	payload, err := pipeline.New(studioCfg, storage, logger).BuildPayload(ctx, projectRoot)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(projectRoot, logger)
	sess := store.Load()

	state := &State{
		config:      studioCfg,
		projectRoot: projectRoot,
		readOnly:    readOnly,
		logger:      logger,
		payload:     payload,
		session:     sess,
		store:       store,
		events:      NewHub(logger),
	}
	state.applySession()
	return state, nil
}

// Events returns the websocket broadcast hub
func (s *State) Events() *Hub {
	return s.events
}

// ProjectRoot returns the directory the studio is editing
func (s *State) ProjectRoot() string {
	return s.projectRoot
}

// applySession restores saved slide edits over the freshly generated
// payload. Saved slides that no longer exist in the deck are dropped.
func (s *State) applySession() {
	if len(s.session.Payload.Slides) == 0 {
		return
	}

	saved := make(map[string]*models.Slide, len(s.session.Payload.Slides))
	for i := range s.session.Payload.Slides {
		saved[s.session.Payload.Slides[i].ID] = &s.session.Payload.Slides[i]
	}
	for i := range s.payload.Slides {
		if prior, ok := saved[s.payload.Slides[i].ID]; ok {
			s.payload.Slides[i].Title = prior.Title
			s.payload.Slides[i].Bullets = prior.Bullets
			s.payload.Slides[i].Notes = prior.Notes
			if len(prior.Claims) > 0 {
				s.payload.Slides[i].Claims = prior.Claims
			}
			if len(prior.Visuals) > 0 {
				s.payload.Slides[i].Visuals = prior.Visuals
			}
		}
	}
	s.refreshQuality()
}

// refreshQuality re-runs the gate in relaxed mode; callers hold the lock
func (s *State) refreshQuality() {
	gate := quality.NewGate(&s.config.Quality, s.logger)
	s.payload.Quality = gate.Check(s.payload, false)
}

// Context returns run metadata for the workspace header
func (s *State) Context() *ContextInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &ContextInfo{
		SchemaVersion: s.payload.SchemaVersion,
		Project:       s.payload.Project,
		Git:           s.payload.Git,
		Quality:       s.payload.Quality,
		ReadOnly:      s.readOnly,
		Warnings:      s.payload.Readme.Warnings,
	}
}

// Slides returns a copy of the current slide list
func (s *State) Slides() []models.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySlides(s.payload.Slides)
}

// EvidenceList returns the evidence records backing the deck
func (s *State) EvidenceList() []models.Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Evidence, len(s.payload.Evidence))
	copy(out, s.payload.Evidence)
	return out
}

// MediaCatalog returns the indexed media entries
func (s *State) MediaCatalog() []models.MediaEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MediaEntry, len(s.payload.Media))
	copy(out, s.payload.Media)
	return out
}

// MediaPath resolves a catalog id to an absolute file path, rejecting
// anything that escapes the project root.
func (s *State) MediaPath(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.payload.MediaByID(id)
	if entry == nil {
		return "", common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("unknown media id: %s", id), nil)
	}
	return s.containedPath(entry.Path)
}

// Session returns the persisted session state
func (s *State) Session() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// UpdateSlides applies sanitized patches to the working slides, then
// re-runs the quality gate and persists the session with a snapshot of
// the prior state.
func (s *State) UpdateSlides(patches []SlidePatch) ([]models.Slide, *models.QualityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return nil, nil, common.NewAppError(common.CodeInvalidInput, "studio is in read-only mode", nil)
	}

	prior := s.session.Payload

	index := make(map[string]int, len(s.payload.Slides))
	for i := range s.payload.Slides {
		index[s.payload.Slides[i].ID] = i
	}

	for _, patch := range patches {
		pos, ok := index[patch.ID]
		if !ok {
			s.logger.Debug().Str("slide", patch.ID).Msg("Ignoring patch for unknown slide")
			continue
		}
		s.applyPatch(&s.payload.Slides[pos], &patch)
	}

	s.refreshQuality()

	if len(prior.Slides) > 0 {
		s.session.Snapshots = append(s.session.Snapshots, models.Snapshot{
			SavedAt: time.Now().UTC(),
			Label:   "edit",
			Payload: prior,
		})
		if len(s.session.Snapshots) > models.MaxSnapshots {
			s.session.Snapshots = s.session.Snapshots[len(s.session.Snapshots)-models.MaxSnapshots:]
		}
	}
	s.session.Payload = *s.payload
	if err := s.store.Save(s.session); err != nil {
		return nil, nil, err
	}

	s.events.Broadcast("slides_updated", map[string]any{"count": len(patches)})
	return copySlides(s.payload.Slides), s.payload.Quality, nil
}

func (s *State) applyPatch(slide *models.Slide, patch *SlidePatch) {
	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != "" {
			slide.Title = truncateRunes(title, maxPatchTitleChars)
		}
	}
	if patch.Bullets != nil {
		var cleaned []string
		for _, bullet := range *patch.Bullets {
			if text := strings.TrimSpace(bullet); text != "" {
				cleaned = append(cleaned, text)
			}
			if len(cleaned) == maxPatchBullets {
				break
			}
		}
		slide.Bullets = cleaned
	}
	if patch.Notes != nil {
		slide.Notes = truncateRunes(strings.TrimSpace(*patch.Notes), maxPatchNotesChars)
	}
	if patch.Claims != nil {
		slide.Claims = s.sanitizeClaims(*patch.Claims)
	}
	if patch.Visuals != nil {
		slide.Visuals = s.sanitizeVisuals(*patch.Visuals)
	}
}

func (s *State) sanitizeClaims(claims []models.Claim) []models.Claim {
	var cleaned []models.Claim
	for _, claim := range claims {
		if len(cleaned) == maxPatchClaims {
			break
		}
		text := strings.TrimSpace(claim.Text)
		if text == "" {
			continue
		}
		var refs []string
		for _, ref := range claim.EvidenceRefs {
			if r := strings.TrimSpace(ref); r != "" {
				refs = append(refs, r)
			}
			if len(refs) == maxPatchRefs {
				break
			}
		}
		confidence := claim.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.8
		}
		cleaned = append(cleaned, models.Claim{
			Text:         truncateRunes(text, maxPatchClaimChars),
			EvidenceRefs: refs,
			Confidence:   confidence,
		})
	}
	return cleaned
}

// sanitizeVisuals keeps only visuals that reference a known catalog
// entry whose file is inside the project root.
func (s *State) sanitizeVisuals(incoming []models.Visual) []models.Visual {
	var cleaned []models.Visual
	for _, visual := range incoming {
		if len(cleaned) == maxPatchVisuals {
			break
		}
		entry := s.payload.MediaByID(visual.MediaID)
		if entry == nil {
			continue
		}
		if _, err := s.containedPath(entry.Path); err != nil {
			continue
		}
		confidence := visual.Confidence
		if confidence < 0 || confidence > 1 {
			confidence = 0
		}
		cleaned = append(cleaned, models.Visual{
			MediaID:    visual.MediaID,
			Caption:    truncateRunes(strings.TrimSpace(visual.Caption), maxPatchCaptionChars),
			Alt:        truncateRunes(strings.TrimSpace(visual.Alt), maxPatchCaptionChars),
			Confidence: confidence,
			Source:     "user",
		})
	}
	return cleaned
}

// Validate gates the supplied slides, or the working set when nil
func (s *State) Validate(slides []models.Slide) *models.QualityReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slides == nil {
		s.refreshQuality()
		return s.payload.Quality
	}

	scratch := *s.payload
	scratch.Slides = slides
	gate := quality.NewGate(&s.config.Quality, s.logger)
	report := gate.Check(&scratch, false)
	s.events.Broadcast("quality_updated", report)
	return report
}

// Export renders the working deck into the requested format inside the
// project directory.
func (s *State) Export(format, outputPath string) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	renderer := render.NewRenderer(s.logger)

	var data []byte
	var ext string
	var err error
	switch format {
	case "json":
		data, err = renderer.JSON(s.payload)
		ext = ".json"
	case "html":
		data, err = renderer.HTML(s.payload)
		ext = ".html"
	case "markdown":
		data = renderer.Markdown(s.payload)
		ext = ".md"
	default:
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("invalid export format: %s", format), nil).
			WithHint("valid formats: json, html, markdown")
	}
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = "ostendo-export/deck" + ext
	}
	if filepath.Ext(outputPath) == "" {
		outputPath += ext
	}
	target, err := s.containedPath(outputPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to create export directory", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to write export", err)
	}

	return &ExportResult{Format: format, Paths: []string{target}}, nil
}

// AutoFixVisuals re-runs visual selection for slides without images and
// fills missing alt text.
func (s *State) AutoFixVisuals() ([]models.Slide, *models.QualityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return nil, nil, common.NewAppError(common.CodeInvalidInput, "studio is in read-only mode", nil)
	}

	selector := visuals.NewSelector(&s.config.Visuals, s.logger)
	s.payload.Slides = selector.Attach(s.payload.Slides, s.payload.Media)
	filled := visuals.FillMissingAltText(s.payload.Slides, s.payload)
	s.logger.Info().Int("alt_filled", filled).Msg("Auto-fixed visuals")

	s.refreshQuality()
	s.session.Payload = *s.payload
	if err := s.store.Save(s.session); err != nil {
		return nil, nil, err
	}

	s.events.Broadcast("slides_updated", map[string]any{"auto_fix": true})
	return copySlides(s.payload.Slides), s.payload.Quality, nil
}

// SaveSession persists the current working state with a snapshot label
func (s *State) SaveSession(label string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return nil, common.NewAppError(common.CodeInvalidInput, "studio is in read-only mode", nil)
	}

	s.session.PushSnapshot(label, time.Now().UTC())
	s.session.Payload = *s.payload
	if err := s.store.Save(s.session); err != nil {
		return nil, err
	}
	return s.session, nil
}

// containedPath resolves a path against the project root and rejects
// escapes; callers hold the lock.
func (s *State) containedPath(candidate string) (string, error) {
	root, err := filepath.Abs(s.projectRoot)
	if err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to resolve project root", err)
	}
	path := filepath.FromSlash(candidate)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", common.NewAppError(common.CodeInvalidInput,
			"path must stay within the project directory", nil).
			WithHint(candidate)
	}
	return path, nil
}

func copySlides(slides []models.Slide) []models.Slide {
	out := make([]models.Slide, len(slides))
	copy(out, slides)
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
