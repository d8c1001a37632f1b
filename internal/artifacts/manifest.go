package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// ManifestArtifact describes one file in the output bundle
type ManifestArtifact struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Manifest summarizes the output bundle for integrity checks
type Manifest struct {
	SchemaVersion        string             `json:"schema_version"`
	PayloadSchemaVersion string             `json:"payload_schema_version"`
	SlideCount           int                `json:"slide_count"`
	EvidenceCount        int                `json:"evidence_count"`
	MediaCount           int                `json:"media_count"`
	ArtifactCount        int                `json:"artifact_count"`
	Artifacts            []ManifestArtifact `json:"artifacts"`
}

// BuildManifest hashes the named artifact files. Missing files are
// skipped so a partial bundle still yields a valid manifest.
func (b *Builder) BuildManifest(artifactPaths []string, payload *models.Payload) *Manifest {
	artifacts := make([]ManifestArtifact, 0, len(artifactPaths))
	for _, path := range artifactPaths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		digest, err := fileSHA256(path)
		if err != nil {
			b.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable artifact")
			continue
		}
		artifacts = append(artifacts, ManifestArtifact{
			Path:   filepath.Base(path),
			Bytes:  info.Size(),
			SHA256: digest,
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return strings.ToLower(artifacts[i].Path) < strings.ToLower(artifacts[j].Path)
	})

	return &Manifest{
		SchemaVersion:        models.SchemaVersion,
		PayloadSchemaVersion: payload.SchemaVersion,
		SlideCount:           len(payload.Slides),
		EvidenceCount:        len(payload.Evidence),
		MediaCount:           len(payload.Media),
		ArtifactCount:        len(artifacts),
		Artifacts:            artifacts,
	}
}

// WriteManifest writes manifest.json into the bundle directory and
// returns its path.
func (b *Builder) WriteManifest(bundleDir string, artifactPaths []string, payload *models.Payload) (string, error) {
	manifest := b.BuildManifest(artifactPaths, payload)
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to encode manifest", err)
	}
	data = append(data, '\n')

	target := filepath.Join(bundleDir, "manifest.json")
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to write manifest", err)
	}
	return target, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
