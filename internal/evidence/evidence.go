// Package evidence turns scan, doc, git and media facts into the evidence
// records slide claims reference. Every claim on a generated slide must
// point at ids produced here.
package evidence

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/models"
)

// maxSnippetChars caps stored evidence snippets
const maxSnippetChars = 320

// Builder assembles the evidence list for a generation run
type Builder struct {
	logger arbor.ILogger
}

// NewBuilder creates an evidence builder
func NewBuilder(logger arbor.ILogger) *Builder {
	return &Builder{logger: logger}
}

// Build produces the full evidence list. Output order is stable:
// repo records, doc records, git records, then media records in input order.
func (b *Builder) Build(scan *models.ProjectScan, doc *models.ReadmeDoc, git *models.GitContext, media []models.MediaEntry) []models.Evidence {
	var records []models.Evidence

	records = append(records, b.repoRecords(scan)...)
	records = append(records, b.docRecords(scan.RootPath, doc)...)
	records = append(records, b.gitRecords(git)...)
	records = append(records, b.mediaRecords(media)...)

	b.logger.Debug().Int("records", len(records)).Msg("Evidence list built")
	return records
}

func (b *Builder) repoRecords(scan *models.ProjectScan) []models.Evidence {
	var records []models.Evidence

	langs := scan.TopLanguages(3)
	snippet := fmt.Sprintf("Repository contains %d files (%d lines of code) across %d languages",
		scan.FileCount, scan.TotalLines, len(scan.Languages))
	if len(langs) > 0 {
		snippet += ": " + strings.Join(langs, ", ")
	}
	snippet += "."
	records = append(records, newRecord("repo.files", models.EvidenceRepo, scan.RootPath, snippet, nil))

	if len(scan.Dependencies) > 0 {
		names := make([]string, 0, 3)
		for _, d := range scan.Dependencies {
			names = append(names, d.Name)
			if len(names) == 3 {
				break
			}
		}
		snippet := fmt.Sprintf("Declares %d dependencies including %s.",
			len(scan.Dependencies), strings.Join(names, ", "))
		source := scan.RootPath
		if len(scan.Dependencies) > 0 {
			source = filepath.Join(scan.RootPath, filepath.FromSlash(scan.Dependencies[0].Source))
		}
		records = append(records, newRecord("repo.deps", models.EvidenceRepo, source, snippet, nil))
	}

	return records
}

func (b *Builder) docRecords(rootPath string, doc *models.ReadmeDoc) []models.Evidence {
	if doc == nil || doc.Path == "" {
		return nil
	}
	readmePath := filepath.Join(rootPath, filepath.FromSlash(doc.Path))

	var records []models.Evidence
	add := func(id, snippet string) {
		if snippet == "" {
			return
		}
		span := locateSpan(readmePath, snippet)
		records = append(records, newRecord(id, models.EvidenceDoc, readmePath, snippet, span))
	}

	add("doc.problem", doc.Problem)
	add("doc.solution", doc.Solution)
	if len(doc.Features) > 0 {
		add("doc.features", strings.Join(doc.Features, "; "))
	}
	add("doc.tech", doc.Tech)
	add("doc.future", doc.Future)
	add("doc.demo", doc.Demo)

	return records
}

func (b *Builder) gitRecords(git *models.GitContext) []models.Evidence {
	if git == nil || !git.Available {
		return nil
	}

	var records []models.Evidence

	if git.Branch != "" && git.HeadSHA != "" {
		sha := git.HeadSHA
		if len(sha) > 12 {
			sha = sha[:12]
		}
		snippet := fmt.Sprintf("Branch '%s' at %s.", git.Branch, sha)
		records = append(records, newRecord("git.branch", models.EvidenceGit, "git", snippet, nil))
	}

	if git.ChangeSummary != "" && git.ChangedFilesCount > 0 {
		records = append(records, newRecord("git.changes", models.EvidenceGit, "git", git.ChangeSummary, nil))
	}

	return records
}

func (b *Builder) mediaRecords(media []models.MediaEntry) []models.Evidence {
	var records []models.Evidence
	for _, m := range media {
		snippet := fmt.Sprintf("Image %s (%s, %dx%d)", m.Path, m.Mime, m.Width, m.Height)
		if m.Alt != "" {
			snippet += fmt.Sprintf(": %s", m.Alt)
		}
		snippet += "."
		records = append(records, newRecord(m.ID, models.EvidenceMedia, m.Path, snippet, nil))
	}
	return records
}

// newRecord builds an evidence record with the hash taken over the full
// snippet before truncation, so a capped snippet still detects source edits.
func newRecord(id string, kind models.EvidenceKind, source, snippet string, span *models.LineSpan) models.Evidence {
	sum := sha1.Sum([]byte(snippet))
	if len(snippet) > maxSnippetChars {
		snippet = snippet[:maxSnippetChars]
	}
	return models.Evidence{
		ID:          id,
		Kind:        kind,
		Source:      source,
		Snippet:     snippet,
		SnippetHash: hex.EncodeToString(sum[:]),
		LineSpan:    span,
	}
}

// locateSpan finds the snippet's line range in the source file by substring
// search on its leading fragment. Returns nil when the fragment is not found.
func locateSpan(path, snippet string) *models.LineSpan {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	fragment := snippet
	if len(fragment) > 60 {
		fragment = fragment[:60]
	}
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	content := string(data)
	idx := strings.Index(content, fragment)
	if idx < 0 {
		return nil
	}

	startLine := 1 + strings.Count(content[:idx], "\n")
	endLine := startLine + strings.Count(fragment, "\n")
	return &models.LineSpan{Start: startLine, End: endLine}
}
