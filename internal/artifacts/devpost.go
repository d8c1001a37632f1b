package artifacts

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

const maxPackageScreenshots = 4

var screenshotTags = map[string]bool{
	"screenshot": true,
	"screen":     true,
	"demo":       true,
	"ui":         true,
	"interface":  true,
}

// DevpostPackage zips the bundle artifacts, the top-scored screenshots
// and a generated project summary into a submission archive.
func (b *Builder) DevpostPackage(projectRoot, outputZip string, payload *models.Payload, artifactPaths []string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outputZip), 0755); err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to create package directory", err)
	}

	f, err := os.Create(outputZip)
	if err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to create package archive", err)
	}
	defer f.Close()

	archive := zip.NewWriter(f)

	for _, path := range artifactPaths {
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		if err := addFileToZip(archive, path, filepath.Base(path)); err != nil {
			archive.Close()
			return "", common.NewAppError(common.CodeRuntimeError, "failed to add artifact to package", err)
		}
	}

	for _, mediaPath := range topMediaFiles(payload.Media, projectRoot, maxPackageScreenshots) {
		if err := addFileToZip(archive, mediaPath, "screenshots/"+filepath.Base(mediaPath)); err != nil {
			b.logger.Warn().Err(err).Str("path", mediaPath).Msg("Skipping screenshot in package")
		}
	}

	summary, err := archive.Create("project-summary.md")
	if err != nil {
		archive.Close()
		return "", common.NewAppError(common.CodeRuntimeError, "failed to add summary to package", err)
	}
	if _, err := summary.Write(devpostSummary(payload)); err != nil {
		archive.Close()
		return "", common.NewAppError(common.CodeRuntimeError, "failed to write package summary", err)
	}

	if err := archive.Close(); err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to finalize package archive", err)
	}
	return outputZip, nil
}

func addFileToZip(archive *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := archive.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// topMediaFiles ranks catalog entries for inclusion as screenshots.
// Screenshot-style tags score highest, then README images, then entries
// with known dimensions. Paths escaping the project root are skipped.
func topMediaFiles(media []models.MediaEntry, projectRoot string, limit int) []string {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil
	}

	type ranked struct {
		score int
		key   string
		path  string
	}
	var candidates []ranked

	for i := range media {
		entry := &media[i]
		if entry.Path == "" {
			continue
		}
		candidate := filepath.Join(absRoot, filepath.FromSlash(entry.Path))
		rel, relErr := filepath.Rel(absRoot, candidate)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		info, statErr := os.Stat(candidate)
		if statErr != nil || info.IsDir() {
			continue
		}

		score := 0
		for _, tag := range entry.Tags {
			if screenshotTags[strings.ToLower(tag)] {
				score += 3
				break
			}
		}
		if entry.Kind == models.MediaDocImage {
			score++
		}
		if entry.Width > 0 && entry.Height > 0 {
			score++
		}

		candidates = append(candidates, ranked{score: score, key: strings.ToLower(entry.Path), path: candidate})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].key < candidates[j].key
	})

	seen := make(map[string]bool)
	var selected []string
	for _, c := range candidates {
		if seen[c.path] {
			continue
		}
		seen[c.path] = true
		selected = append(selected, c.path)
		if len(selected) == limit {
			break
		}
	}
	return selected
}

// devpostSummary writes the short project-summary.md placed in the
// package root.
func devpostSummary(payload *models.Payload) []byte {
	project := payload.Project.Name
	if project == "" {
		project = "Ostendo Project"
	}

	problem := slideBody(payload, models.SlideProblem)
	if problem == "" {
		problem = "Problem statement derived from repository evidence."
	}
	solution := slideBody(payload, models.SlideSolution)
	if solution == "" {
		solution = "Solution summary derived from repository evidence."
	}

	var langParts []string
	for _, name := range payload.Project.TopLanguages(5) {
		langParts = append(langParts, fmt.Sprintf("%s (%d)", name, payload.Project.Languages[name].Files))
	}
	langLine := strings.Join(langParts, ", ")
	if langLine == "" {
		langLine = "See deck for technical details."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", project)
	sb.WriteString("## Problem\n" + problem + "\n\n")
	sb.WriteString("## Solution\n" + solution + "\n\n")
	sb.WriteString("## Tech\n" + langLine + "\n\n")
	sb.WriteString("## What is Included\n")
	sb.WriteString("- Presentation deck\n")
	sb.WriteString("- Speaker notes\n")
	sb.WriteString("- Talk track\n")
	sb.WriteString("- Screenshots\n")
	return []byte(sb.String())
}

func slideBody(payload *models.Payload, slideType models.SlideType) string {
	for i := range payload.Slides {
		slide := &payload.Slides[i]
		if slide.Type != slideType {
			continue
		}
		n := len(slide.Bullets)
		if n > 2 {
			n = 2
		}
		return strings.TrimSpace(strings.Join(slide.Bullets[:n], " "))
	}
	return ""
}
