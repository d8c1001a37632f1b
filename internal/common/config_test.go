package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ostendo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 7075, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, AIModeOff, cfg.AI.Mode)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.Telemetry.Anonymous)
	assert.Empty(t, cfg.Generate.SlideTypes)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFilesLayering(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")

	require.NoError(t, os.WriteFile(base, []byte("[server]\nport = 8000\n\n[generate]\nstrict = true\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("[server]\nport = 9000\n"), 0o644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port, "later files win")
	assert.True(t, cfg.Generate.Strict, "earlier values survive when not overridden")
}

func TestLoadFromFilesRejectsBadEnum(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "[ai]\nmode = \"turbo\"\n")

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Equal(t, CodeConfigError, CodeOf(err))
}

func TestLoadLayeredPicksUpProjectFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "[generate]\nout_dir = \"build/deck\"\n")

	cfg, err := LoadLayered(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "build/deck", cfg.Generate.OutDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OSTENDO_AI_MODE", "hybrid")
	t.Setenv("OSTENDO_OUT_DIR", "/tmp/deck-out")
	t.Setenv("OSTENDO_STRICT", "true")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, AIModeHybrid, cfg.AI.Mode)
	assert.Equal(t, "/tmp/deck-out", cfg.Generate.OutDir)
	assert.True(t, cfg.Generate.Strict)
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("OSTENDO_CLAUDE_API_KEY", "from-env")

	key, err := ResolveAPIKey("anthropic_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	t.Setenv("OSTENDO_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	key, err = ResolveAPIKey("anthropic_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	_, err = ResolveAPIKey("anthropic_api_key", "")
	require.Error(t, err)
	assert.Equal(t, CodeModelNotAvailable, CodeOf(err))
}

func TestDeepCloneConfigIsIndependent(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Generate.SlideTypes = []string{"title", "problem"}

	clone := DeepCloneConfig(cfg)
	clone.Generate.SlideTypes[0] = "mutated"
	clone.Server.Port = 1

	assert.Equal(t, "title", cfg.Generate.SlideTypes[0])
	assert.Equal(t, 7075, cfg.Server.Port)
}

func TestAppErrorCodesAndHints(t *testing.T) {
	err := NewAppError(CodeQualityGateFailed, "deck failed checks", nil).
		WithHint("fix unattributed claims")

	assert.Equal(t, CodeQualityGateFailed, CodeOf(err))
	assert.Equal(t, "fix unattributed claims", HintOf(err))
	assert.Equal(t, 4, ExitCodeFor(err))

	wrapped := NewAppError(CodeGitError, "git failed", errors.New("exit 128"))
	assert.Contains(t, wrapped.Error(), "exit 128")
	assert.Equal(t, 1, ExitCodeFor(wrapped))

	assert.Equal(t, 0, ExitCodeFor(nil))
	assert.Equal(t, CodeRuntimeError, CodeOf(errors.New("plain")))
}
