// Package modelstore manages locally installed GGUF models for the
// local inference backend: a small catalog of known aliases plus a
// registry of what is downloaded where.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
)

// BuiltinModel describes one known downloadable model.
type BuiltinModel struct {
	RepoID   string `json:"repo_id"`
	Filename string `json:"filename"`
	License  string `json:"license"`
}

// ModelInfo is one row of the models listing.
type ModelInfo struct {
	Alias     string `json:"alias"`
	Installed bool   `json:"installed"`
	Path      string `json:"path,omitempty"`
	License   string `json:"license"`
}

// BuiltinModels maps aliases to their Hugging Face source.
var BuiltinModels = map[string]BuiltinModel{
	"qwen2.5-3b-instruct-q4_k_m": {
		RepoID:   "Qwen/Qwen2.5-3B-Instruct-GGUF",
		Filename: "qwen2.5-3b-instruct-q4_k_m.gguf",
		License:  "apache-2.0",
	},
	"phi-3.5-mini-instruct-q4_k_m": {
		RepoID:   "bartowski/Phi-3.5-mini-instruct-GGUF",
		Filename: "Phi-3.5-mini-instruct-Q4_K_M.gguf",
		License:  "mit",
	},
}

// Store reads and writes the local model registry.
type Store struct {
	root   string
	client *http.Client
	logger arbor.ILogger
}

type registry struct {
	Installed map[string]string `json:"installed"`
}

func New(logger arbor.ILogger) *Store {
	return &Store{
		root:   defaultRoot(),
		client: &http.Client{Timeout: 30 * time.Minute},
		logger: logger,
	}
}

// NewAt uses an explicit storage root, primarily for tests.
func NewAt(root string, client *http.Client, logger arbor.ILogger) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{root: root, client: client, logger: logger}
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ostendo", "models")
	}
	return filepath.Join(home, ".local", "share", "ostendo", "models")
}

// Root returns the model storage directory.
func (s *Store) Root() string {
	return s.root
}

// List returns the catalog plus any side-loaded registry entries,
// sorted by alias.
func (s *Store) List() []ModelInfo {
	installed := s.loadRegistry().Installed

	var rows []ModelInfo
	for alias, model := range BuiltinModels {
		path := installed[alias]
		rows = append(rows, ModelInfo{
			Alias:     alias,
			Installed: path != "" && fileExists(path),
			Path:      path,
			License:   model.License,
		})
	}
	for alias, path := range installed {
		if _, builtin := BuiltinModels[alias]; builtin {
			continue
		}
		rows = append(rows, ModelInfo{
			Alias:     alias,
			Installed: fileExists(path),
			Path:      path,
			License:   "unknown",
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Alias < rows[j].Alias })
	return rows
}

// ResolvePath returns the on-disk path of an installed alias, or empty
// when the alias is not installed.
func (s *Store) ResolvePath(alias string) string {
	if path := s.loadRegistry().Installed[alias]; path != "" && fileExists(path) {
		return path
	}
	candidate := filepath.Join(s.root, alias, "model.gguf")
	if fileExists(candidate) {
		return candidate
	}
	return ""
}

// Install downloads a built-in model into local storage. An already
// installed alias is a no-op unless force is set.
func (s *Store) Install(ctx context.Context, alias string, force bool) (string, error) {
	model, ok := BuiltinModels[alias]
	if !ok {
		known := make([]string, 0, len(BuiltinModels))
		for name := range BuiltinModels {
			known = append(known, name)
		}
		sort.Strings(known)
		return "", common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("unknown model alias %q", alias), nil).
			WithHint("use one of: " + strings.Join(known, ", "))
	}

	targetDir := filepath.Join(s.root, alias)
	targetPath := filepath.Join(targetDir, "model.gguf")

	if fileExists(targetPath) && !force {
		s.registerInstalled(alias, targetPath)
		return targetPath, nil
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to create model directory", err)
	}

	url := fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", model.RepoID, model.Filename)
	s.logger.Info().Str("alias", alias).Str("url", url).Msg("Downloading model")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to build download request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", common.NewAppError(common.CodeModelNotAvailable,
			fmt.Sprintf("failed to download model %q", alias), err).
			WithHint("check network access to huggingface.co")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", common.NewAppError(common.CodeModelNotAvailable,
			fmt.Sprintf("model download failed with status %d", resp.StatusCode), nil).
			WithHint("the model file may have moved; check the alias catalog")
	}

	tmpPath := targetPath + ".partial"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", common.NewAppError(common.CodeRuntimeError, "failed to create model file", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", common.NewAppError(common.CodeRuntimeError, "model download interrupted", err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", common.NewAppError(common.CodeRuntimeError, "failed to finalize model file", closeErr)
	}
	if err := os.Rename(tmpPath, targetPath); err != nil {
		os.Remove(tmpPath)
		return "", common.NewAppError(common.CodeRuntimeError, "failed to move model into place", err)
	}

	s.logger.Info().Str("alias", alias).Int64("bytes", written).Msg("Model installed")
	s.registerInstalled(alias, targetPath)
	return targetPath, nil
}

func (s *Store) registerInstalled(alias, path string) {
	reg := s.loadRegistry()
	reg.Installed[alias] = path
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to create model root")
		return
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.registryPath(), append(data, '\n'), 0o644); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write model registry")
	}
}

func (s *Store) registryPath() string {
	return filepath.Join(s.root, "registry.json")
}

func (s *Store) loadRegistry() registry {
	reg := registry{Installed: map[string]string{}}
	data, err := os.ReadFile(s.registryPath())
	if err != nil {
		return reg
	}
	if err := json.Unmarshal(data, &reg); err != nil || reg.Installed == nil {
		s.logger.Warn().Str("path", s.registryPath()).Msg("Model registry is corrupted, starting fresh")
		return registry{Installed: map[string]string{}}
	}
	return reg
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
