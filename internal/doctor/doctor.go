// Package doctor runs local environment checks so generation failures
// can be diagnosed before a run instead of mid-pipeline.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/ai"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/gitctx"
	"github.com/ternarybob/ostendo/internal/modelstore"
)

// CheckStatus is the outcome of a single diagnostic check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check is one diagnostic result.
type Check struct {
	ID      string      `json:"id"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

// Summary aggregates check outcomes. Status is "fail" when any check
// failed; warnings alone still report "pass".
type Summary struct {
	Status   CheckStatus `json:"status"`
	Passed   int         `json:"passed"`
	Warnings int         `json:"warnings"`
	Failed   int         `json:"failed"`
	Total    int         `json:"total"`
}

// Report is the full doctor output.
type Report struct {
	Checks  []Check `json:"checks"`
	Summary Summary `json:"summary"`
}

type Doctor struct {
	logger arbor.ILogger
}

func New(logger arbor.ILogger) *Doctor {
	return &Doctor{logger: logger}
}

// Run executes all checks against the project directory.
func (d *Doctor) Run(ctx context.Context, projectDir string) *Report {
	abs, err := filepath.Abs(projectDir)
	if err == nil {
		projectDir = abs
	}

	var checks []Check
	checks = append(checks, checkGitBinary())

	projectCheck := checkProjectDir(projectDir)
	checks = append(checks, projectCheck)

	if projectCheck.Status == StatusPass {
		checks = append(checks, checkWriteAccess(projectDir))
	} else {
		checks = append(checks, Check{
			ID:      "write_access",
			Status:  StatusWarn,
			Message: "Write access check skipped because project directory is missing.",
			Hint:    "Create the directory first or pass an existing project path.",
		})
	}

	cfg, configCheck := checkConfig(projectDir)
	checks = append(checks, configCheck)

	checks = append(checks, d.checkGitContext(ctx, projectDir, cfg))

	if cfg != nil {
		checks = append(checks, checkModelAvailability(ctx, cfg))
	}

	return &Report{Checks: checks, Summary: Summarize(checks)}
}

// Summarize rolls individual checks into a pass/fail summary.
func Summarize(checks []Check) Summary {
	summary := Summary{Status: StatusPass, Total: len(checks)}
	for _, c := range checks {
		switch c.Status {
		case StatusPass:
			summary.Passed++
		case StatusWarn:
			summary.Warnings++
		case StatusFail:
			summary.Failed++
		}
	}
	if summary.Failed > 0 {
		summary.Status = StatusFail
	}
	return summary
}

func checkGitBinary() Check {
	if _, err := exec.LookPath("git"); err != nil {
		return Check{
			ID:      "git_binary",
			Status:  StatusWarn,
			Message: "git executable not found on PATH; branch-aware slides will be disabled.",
			Hint:    "Install git to enable the delta slide and commit metadata.",
		}
	}
	return Check{ID: "git_binary", Status: StatusPass, Message: "git executable found on PATH."}
}

func checkProjectDir(projectDir string) Check {
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return Check{
			ID:      "project_dir",
			Status:  StatusFail,
			Message: fmt.Sprintf("Project directory is missing: %s", projectDir),
			Hint:    "Run from the repository root or pass -project PATH.",
		}
	}
	return Check{
		ID:      "project_dir",
		Status:  StatusPass,
		Message: fmt.Sprintf("Project directory exists: %s", projectDir),
	}
}

func checkWriteAccess(projectDir string) Check {
	probeDir := filepath.Join(projectDir, ".ostendo")
	probeFile := filepath.Join(probeDir, ".doctor-write-probe")

	if err := os.MkdirAll(probeDir, 0o755); err != nil {
		return writeAccessFail(projectDir, err)
	}
	if err := os.WriteFile(probeFile, []byte("ok"), 0o644); err != nil {
		return writeAccessFail(projectDir, err)
	}
	os.Remove(probeFile)

	return Check{ID: "write_access", Status: StatusPass, Message: "Project write access is available."}
}

func writeAccessFail(projectDir string, err error) Check {
	return Check{
		ID:      "write_access",
		Status:  StatusFail,
		Message: fmt.Sprintf("Project is not writable: %s", projectDir),
		Hint:    err.Error(),
	}
}

func checkConfig(projectDir string) (*common.Config, Check) {
	cfg, err := common.LoadLayered(projectDir, "")
	if err != nil {
		return nil, Check{
			ID:      "config_load",
			Status:  StatusFail,
			Message: "Configuration failed to load.",
			Hint:    err.Error(),
		}
	}
	return cfg, Check{ID: "config_load", Status: StatusPass, Message: "Configuration loaded successfully."}
}

func (d *Doctor) checkGitContext(ctx context.Context, projectDir string, cfg *common.Config) Check {
	if _, err := os.Stat(filepath.Join(projectDir, ".git")); err != nil {
		return Check{
			ID:      "git_context",
			Status:  StatusWarn,
			Message: "No .git directory found; delta slide will be disabled.",
			Hint:    "Initialize git or clone with history for branch-aware output.",
		}
	}

	gitCfg := common.GitConfig{}
	if cfg != nil {
		gitCfg = cfg.Git
	}
	gc := gitctx.New(&gitCfg, d.logger).Collect(ctx, projectDir)

	if !gc.Available {
		return Check{
			ID:      "git_context",
			Status:  StatusWarn,
			Message: "Directory has .git but git metadata could not be read.",
			Hint:    strings.Join(gc.Warnings, "; "),
		}
	}
	if gc.BaseBranch == "" {
		return Check{
			ID:      "git_context",
			Status:  StatusWarn,
			Message: "Could not detect base branch (main/master).",
			Hint:    "Set git.base_branches in ostendo.toml or add a main/master reference.",
		}
	}
	return Check{
		ID:      "git_context",
		Status:  StatusPass,
		Message: fmt.Sprintf("Git repository detected (base branch: %s).", gc.BaseBranch),
	}
}

func checkModelAvailability(ctx context.Context, cfg *common.Config) Check {
	if cfg.AI.Mode == common.AIModeOff || cfg.AI.Mode == "" {
		return Check{
			ID:      "model_ready",
			Status:  StatusPass,
			Message: "Model check skipped (deterministic mode).",
		}
	}

	factory := ai.NewProviderFactory(cfg, common.GetLogger())
	defer factory.Close()

	model := cfg.AI.Model
	provider := factory.DetectProvider(model)
	if model == "" {
		model = factory.GetDefaultModel(provider)
	}

	switch provider {
	case ai.ProviderClaude:
		if _, err := common.ResolveAPIKey("anthropic_api_key", cfg.Claude.APIKey); err != nil {
			return modelMissing(model, "Set ANTHROPIC_API_KEY or claude.api_key in ostendo.toml.")
		}
	case ai.ProviderGemini:
		if _, err := common.ResolveAPIKey("gemini_api_key", cfg.Gemini.APIKey); err != nil {
			return modelMissing(model, "Set GEMINI_API_KEY or gemini.api_key in ostendo.toml.")
		}
	case ai.ProviderLocal:
		if !localServerReachable(ctx, cfg.Local.BaseURL) {
			hint := fmt.Sprintf("Start the local model server at %s.", cfg.Local.BaseURL)
			if modelstore.New(common.GetLogger()).ResolvePath(cfg.Local.Model) == "" {
				hint = fmt.Sprintf("Run: ostendo models install %s, then start the local server.", cfg.Local.Model)
			}
			return modelMissing(model, hint)
		}
	}

	return Check{
		ID:      "model_ready",
		Status:  StatusPass,
		Message: fmt.Sprintf("Model is configured: %s (%s)", model, provider),
	}
}

func modelMissing(model, hint string) Check {
	return Check{
		ID:      "model_ready",
		Status:  StatusWarn,
		Message: fmt.Sprintf("Model is not ready: %s", model),
		Hint:    hint,
	}
}

func localServerReachable(ctx context.Context, baseURL string) bool {
	url := strings.TrimRight(baseURL, "/") + "/v1/models"
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
