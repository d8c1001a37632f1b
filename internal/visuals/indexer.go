// Package visuals indexes project images and attaches them to slides.
package visuals

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/models"
)

// maxTags bounds the per-image tag list
const maxTags = 24

// markdownImageRe matches ![alt](path) references, tolerating a title part
var markdownImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// Indexer discovers and fingerprints project images. A badger-backed cache
// keyed by content hash skips probing and preview encoding for unchanged
// files across runs; cache may be nil for one-shot runs.
type Indexer struct {
	visualsConfig  *common.VisualsConfig
	analyzerConfig *common.AnalyzerConfig
	cache          interfaces.MediaCache
	logger         arbor.ILogger
}

// NewIndexer creates a media indexer
func NewIndexer(visualsConfig *common.VisualsConfig, analyzerConfig *common.AnalyzerConfig, cache interfaces.MediaCache, logger arbor.ILogger) *Indexer {
	return &Indexer{
		visualsConfig:  visualsConfig,
		analyzerConfig: analyzerConfig,
		cache:          cache,
		logger:         logger,
	}
}

// Index walks the project for images and returns entries sorted by path.
// README image references promote entries to doc_image kind and contribute
// alt text.
func (x *Indexer) Index(ctx context.Context, projectRoot string, readme *models.ReadmeDoc) ([]models.MediaEntry, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to resolve project path", err)
	}

	docRefs := x.readmeImageRefs(absRoot, readme)

	ignored := make(map[string]bool, len(x.analyzerConfig.IgnoreDirs))
	for _, dir := range x.analyzerConfig.IgnoreDirs {
		ignored[dir] = true
	}

	var entries []models.MediaEntry
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImagePath(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		entry, indexErr := x.indexOne(ctx, path, rel, docRefs)
		if indexErr != nil {
			x.logger.Debug().Str("path", rel).Err(indexErr).Msg("Skipping image")
			return nil
		}
		entries = append(entries, *entry)
		return nil
	})
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "media walk failed", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	x.logger.Debug().Int("images", len(entries)).Msg("Media index built")
	return entries, nil
}

// indexOne fingerprints a single image, consulting the cache by content hash
func (x *Indexer) indexOne(ctx context.Context, absPath, relPath string, docRefs map[string]string) (*models.MediaEntry, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	alt, isDocImage := docRefs[relPath]
	kind := models.MediaRepoImage
	if isDocImage {
		kind = models.MediaDocImage
	}

	if x.cache != nil {
		if cached, cacheErr := x.cache.Get(ctx, hash); cacheErr == nil {
			// Content unchanged: reuse probe results, refresh path-derived fields
			cached.Path = relPath
			cached.Kind = kind
			cached.Alt = alt
			cached.Tags = buildTags(relPath, alt)
			return cached, nil
		}
	}

	info, err := ProbeImage(data)
	if err != nil {
		return nil, err
	}

	entry := &models.MediaEntry{
		ID:        "media." + hash[:16],
		Path:      relPath,
		Kind:      kind,
		Mime:      FormatMime(info.Mime),
		Width:     info.Width,
		Height:    info.Height,
		SizeBytes: int64(len(data)),
		Tags:      buildTags(relPath, alt),
		Alt:       alt,
	}

	if x.visualsConfig.MaxPreviewBytes > 0 && entry.SizeBytes <= x.visualsConfig.MaxPreviewBytes {
		entry.PreviewURI = "data:" + entry.Mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	}

	if x.cache != nil {
		if putErr := x.cache.Put(ctx, hash, entry); putErr != nil {
			x.logger.Debug().Err(putErr).Msg("Media cache write failed")
		}
	}

	return entry, nil
}

// readmeImageRefs maps README-referenced image paths (relative to the
// project root, forward slashes) to their alt text.
func (x *Indexer) readmeImageRefs(absRoot string, readme *models.ReadmeDoc) map[string]string {
	refs := map[string]string{}
	if readme == nil || readme.Path == "" {
		return refs
	}

	readmePath := filepath.Join(absRoot, filepath.FromSlash(readme.Path))
	data, err := os.ReadFile(readmePath)
	if err != nil {
		return refs
	}

	readmeDir := filepath.Dir(readmePath)
	for _, m := range markdownImageRe.FindAllStringSubmatch(string(data), -1) {
		alt, target := m[1], m[2]
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			continue
		}
		target = strings.TrimPrefix(target, "./")

		abs := filepath.Join(readmeDir, filepath.FromSlash(target))
		rel, relErr := filepath.Rel(absRoot, abs)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		refs[filepath.ToSlash(rel)] = strings.TrimSpace(alt)
	}
	return refs
}

// tokenRe splits paths and alt text into tags
var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// buildTags tokenizes the path and alt text into at most maxTags lowercase tags
func buildTags(relPath, alt string) []string {
	seen := map[string]bool{}
	var tags []string

	add := func(source string) {
		for _, tok := range tokenRe.FindAllString(strings.ToLower(source), -1) {
			if len(tok) < 2 || seen[tok] || len(tags) >= maxTags {
				continue
			}
			seen[tok] = true
			tags = append(tags, tok)
		}
	}

	// Strip the extension so "demo.png" tags as "demo", not "demo png"
	base := relPath
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}
	add(base)
	add(alt)
	return tags
}
