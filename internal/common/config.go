package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `toml:"server"`
	Generate  GenerateConfig   `toml:"generate"`
	Analyzer  AnalyzerConfig   `toml:"analyzer"`
	Docs      DocsConfig       `toml:"docs"`
	Git       GitConfig        `toml:"git"`
	Visuals   VisualsConfig    `toml:"visuals"`
	Quality   QualityConfig    `toml:"quality"`
	AI        AIConfig         `toml:"ai"`
	Claude    ClaudeConfig     `toml:"claude"`
	Gemini    GeminiConfig     `toml:"gemini"`
	Local     LocalModelConfig `toml:"local"`
	Storage   StorageConfig    `toml:"storage"`
	Telemetry TelemetryConfig  `toml:"telemetry"`
	Logging   LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"` // Studio binds loopback only; host is validated against loopback addresses
}

// GenerateConfig controls deck generation defaults
type GenerateConfig struct {
	OutDir     string   `toml:"out_dir"`     // Output directory for rendered artifacts
	Preset     string   `toml:"preset"`      // Named preset applied before other overrides
	SlideTypes []string `toml:"slide_types"` // Requested slide types (empty = full canonical set)
	Strict     bool     `toml:"strict"`      // Strict quality gate (visual coverage and alt text become errors)
	WithAI     bool     `toml:"with_ai"`     // Run the AI refinement pass
}

// AnalyzerConfig controls repository scanning
type AnalyzerConfig struct {
	IgnoreDirs  []string `toml:"ignore_dirs"`   // Directory names skipped during the walk
	MaxFileSize int64    `toml:"max_file_size"` // Files larger than this are counted but not line-scanned
}

// DocsConfig controls README discovery and parsing
type DocsConfig struct {
	ReadmePath string `toml:"readme_path"` // Override README location (must stay inside the project root)
}

// GitConfig controls git metadata collection
type GitConfig struct {
	Timeout      time.Duration `toml:"timeout"`       // Per-command timeout for git invocations
	BaseBranches []string      `toml:"base_branches"` // Base branch candidates, in priority order
}

// VisualsConfig controls image indexing and slide attachment scoring.
// The bonus values are deliberately configuration, not code constants, so the
// scorer can be tuned per project without a rebuild.
type VisualsConfig struct {
	MinConfidence    float64 `toml:"min_confidence"`     // Minimum score for an image to attach to a slide
	MaxPerSlide      int     `toml:"max_per_slide"`      // Maximum images attached to a single slide
	EvidenceRefBonus float64 `toml:"evidence_ref_bonus"` // Bonus when image evidence id overlaps slide claim refs
	DocImageBonus    float64 `toml:"doc_image_bonus"`    // Bonus for images referenced from the README
	StyleBonus       float64 `toml:"style_bonus"`        // Bonus for preferred-style filename markers
	StyleBonusMinor  float64 `toml:"style_bonus_minor"`  // Smaller bonus for secondary style markers
	KeywordBonus     float64 `toml:"keyword_bonus"`      // Bonus for demo/tech/impact keyword matches
	MaxPreviewBytes  int64   `toml:"max_preview_bytes"`  // Images at or below this size get an inline preview data URI
}

// QualityConfig controls the quality gate
type QualityConfig struct {
	BannedPhrases    []string `toml:"banned_phrases"`     // Hype phrases that fail the gate when present in slide copy
	MinImageCoverage float64  `toml:"min_image_coverage"` // Minimum fraction of eligible slides carrying a visual (strict mode)
}

// AIMode selects how the AI refinement pass participates in generation
type AIMode string

const (
	// AIModeOff disables the refinement pass entirely
	AIModeOff AIMode = "off"
	// AIModeHybrid runs the pass but falls back to the deterministic deck on failure
	AIModeHybrid AIMode = "hybrid"
	// AIModeStrict requires the pass to succeed
	AIModeStrict AIMode = "ai"
)

// AIConfig contains unified configuration for the refinement pass
type AIConfig struct {
	Mode  AIMode `toml:"mode" validate:"omitempty,oneof=off hybrid ai"` // off, hybrid, or ai
	Model string `toml:"model"`                                         // Model string; provider detected from prefix
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY env also honored)
	Model       string  `toml:"model"`       // Model for refinement (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for refinement (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LocalModelConfig contains configuration for a local llama.cpp-compatible server
type LocalModelConfig struct {
	BaseURL string `toml:"base_url"` // Completion endpoint base URL (default: "http://127.0.0.1:8089")
	Model   string `toml:"model"`    // Model identifier reported to the server
	Timeout string `toml:"timeout"`  // Request timeout as duration string (default: "90s")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the media cache
type BadgerConfig struct {
	Path           string `toml:"path"`             // Cache directory path (default: ".ostendo/cache")
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete cache on startup for clean runs
}

// TelemetryConfig controls opt-in local telemetry
type TelemetryConfig struct {
	Enabled   bool   `toml:"enabled"`   // Disabled by default; nothing is recorded unless opted in
	Anonymous bool   `toml:"anonymous"` // Strips identifying fields from flushed batches
	Endpoint  string `toml:"endpoint"`  // HTTP endpoint for explicit flush (empty = flush reports no-endpoint)
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format     string   `toml:"format" validate:"omitempty,oneof=text json"`            // "json" or "text"
	Output     []string `toml:"output"`                                                 // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                            // Time format for logs (default: "15:04:05")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for stability; only user-facing
// settings should be exposed in ostendo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7075,
			Host: "127.0.0.1",
		},
		Generate: GenerateConfig{
			OutDir:     "./ostendo-out",
			SlideTypes: []string{}, // Empty = full canonical slide order
			Strict:     false,
			WithAI:     false,
		},
		Analyzer: AnalyzerConfig{
			IgnoreDirs: []string{
				".git", "node_modules", "dist", "build", "target",
				"__pycache__", ".venv", "venv", ".idea", ".vscode", ".ostendo",
			},
			MaxFileSize: 2 * 1024 * 1024, // 2MB - larger files counted but not line-scanned
		},
		Git: GitConfig{
			Timeout:      8 * time.Second,
			BaseBranches: []string{"main", "master", "origin/main", "origin/master"},
		},
		Visuals: VisualsConfig{
			MinConfidence:    0.72,
			MaxPerSlide:      2,
			EvidenceRefBonus: 0.45,
			DocImageBonus:    0.22,
			StyleBonus:       0.20,
			StyleBonusMinor:  0.08,
			KeywordBonus:     0.20,
			MaxPreviewBytes:  450 * 1024,
		},
		Quality: QualityConfig{
			BannedPhrases: []string{
				"revolutionary", "game-changing", "game changing", "world-first",
				"world first", "groundbreaking", "disruptive", "next-generation",
				"cutting-edge", "best-in-class", "unparalleled", "paradigm shift",
			},
			MinImageCoverage: 0.5,
		},
		AI: AIConfig{
			Mode:  AIModeOff,
			Model: "",
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.2,
		},
		Local: LocalModelConfig{
			BaseURL: "http://127.0.0.1:8089",
			Model:   "qwen2.5-3b-instruct-q4_k_m",
			Timeout: "90s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: ".ostendo/cache",
			},
		},
		Telemetry: TelemetryConfig{
			Enabled:   false,
			Anonymous: true,
			Endpoint:  "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// UserConfigPath returns the per-user config file location
// (~/.config/ostendo/config.toml). Empty string when the home directory
// cannot be resolved.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ostendo", "config.toml")
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
// Missing optional layers should be filtered by the caller; a named path that
// does not exist is an error.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfigError, fmt.Sprintf("failed to read config file %s", path), err).
				WithHint("check the path passed via -config or OSTENDO_CONFIG")
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, NewAppError(CodeConfigError,
				fmt.Sprintf("failed to parse config file %s (file %d of %d)", path, i+1, len(paths)), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadLayered loads the standard layer stack for a project directory:
// defaults -> user config -> project ostendo.toml -> explicit path -> env.
// Optional layers that do not exist are skipped silently.
func LoadLayered(projectDir, explicitPath string) (*Config, error) {
	var paths []string
	if p := UserConfigPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if projectDir != "" {
		p := filepath.Join(projectDir, "ostendo.toml")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if explicitPath != "" {
		paths = append(paths, explicitPath)
	}
	return LoadFromFiles(paths...)
}

// Validate checks closed-set fields and numeric ranges
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return NewAppError(CodeConfigError, "invalid configuration", err).
			WithHint("check enum fields: logging.level, logging.format, ai.mode")
	}
	if c.Visuals.MinConfidence < 0 || c.Visuals.MinConfidence > 1 {
		return NewAppError(CodeConfigError,
			fmt.Sprintf("visuals.min_confidence must be in [0,1], got %g", c.Visuals.MinConfidence), nil)
	}
	if c.Visuals.MaxPerSlide < 0 {
		return NewAppError(CodeConfigError, "visuals.max_per_slide must be non-negative", nil)
	}
	if c.Quality.MinImageCoverage < 0 || c.Quality.MinImageCoverage > 1 {
		return NewAppError(CodeConfigError,
			fmt.Sprintf("quality.min_image_coverage must be in [0,1], got %g", c.Quality.MinImageCoverage), nil)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("OSTENDO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("OSTENDO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Generation configuration
	if outDir := os.Getenv("OSTENDO_OUT_DIR"); outDir != "" {
		config.Generate.OutDir = outDir
	}
	if preset := os.Getenv("OSTENDO_PRESET"); preset != "" {
		config.Generate.Preset = preset
	}
	if strict := os.Getenv("OSTENDO_STRICT"); strict != "" {
		if s, err := strconv.ParseBool(strict); err == nil {
			config.Generate.Strict = s
		}
	}

	// Logging configuration
	if level := os.Getenv("OSTENDO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("OSTENDO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("OSTENDO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// AI configuration
	if mode := os.Getenv("OSTENDO_AI_MODE"); mode != "" {
		config.AI.Mode = AIMode(mode)
	}
	if model := os.Getenv("OSTENDO_AI_MODEL"); model != "" {
		config.AI.Model = model
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("OSTENDO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // OSTENDO_ prefix takes priority
	}
	if model := os.Getenv("OSTENDO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("OSTENDO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("OSTENDO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("OSTENDO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Local model configuration
	if baseURL := os.Getenv("OSTENDO_LOCAL_BASE_URL"); baseURL != "" {
		config.Local.BaseURL = baseURL
	}
	if model := os.Getenv("OSTENDO_LOCAL_MODEL"); model != "" {
		config.Local.Model = model
	}

	// Storage configuration
	if badgerPath := os.Getenv("OSTENDO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Telemetry configuration
	if enabled := os.Getenv("OSTENDO_TELEMETRY_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Telemetry.Enabled = e
		}
	}
	if endpoint := os.Getenv("OSTENDO_TELEMETRY_ENDPOINT"); endpoint != "" {
		config.Telemetry.Endpoint = endpoint
	}

	// Git configuration
	if timeout := os.Getenv("OSTENDO_GIT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Git.Timeout = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key with environment variable priority.
// Resolution order: environment variables -> config fallback -> error.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"anthropic_api_key": {"OSTENDO_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":    {"OSTENDO_GEMINI_API_KEY", "GEMINI_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", NewAppError(CodeModelNotAvailable,
		fmt.Sprintf("API key '%s' not found in environment or config", name), nil).
		WithHint("set the key in ostendo.toml or the corresponding environment variable")
}

// DeepCloneConfig creates a deep copy of the Config struct.
// Used by the studio to hand mutable copies to handlers without
// exposing the original.
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if len(c.Generate.SlideTypes) > 0 {
		clone.Generate.SlideTypes = make([]string, len(c.Generate.SlideTypes))
		copy(clone.Generate.SlideTypes, c.Generate.SlideTypes)
	}

	if len(c.Analyzer.IgnoreDirs) > 0 {
		clone.Analyzer.IgnoreDirs = make([]string, len(c.Analyzer.IgnoreDirs))
		copy(clone.Analyzer.IgnoreDirs, c.Analyzer.IgnoreDirs)
	}

	if len(c.Git.BaseBranches) > 0 {
		clone.Git.BaseBranches = make([]string, len(c.Git.BaseBranches))
		copy(clone.Git.BaseBranches, c.Git.BaseBranches)
	}

	if len(c.Quality.BannedPhrases) > 0 {
		clone.Quality.BannedPhrases = make([]string, len(c.Quality.BannedPhrases))
		copy(clone.Quality.BannedPhrases, c.Quality.BannedPhrases)
	}

	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}

	return &clone
}
