package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/pipeline"
	"github.com/ternarybob/ostendo/internal/telemetry"
)

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to scan")
	out := fs.String("out", "", "Output directory (overrides config)")
	preset := fs.String("preset", "", "Named preset to apply")
	types := fs.String("types", "", "Comma-separated slide types (empty = full deck)")
	withAI := fs.Bool("with-ai", false, "Run the AI refinement pass")
	model := fs.String("model", "", "Model for refinement (provider detected from prefix)")
	strict := fs.Bool("strict", false, "Treat quality warnings as errors")
	configPath := fs.String("config", "", "Extra config file (highest file priority)")
	fs.Parse(args)

	cfg, err := loadConfig(*project, *configPath, *preset)
	if err != nil {
		return err
	}
	applyGenerateFlags(fs, cfg, *out, *types, *withAI, *model, *strict)

	logger := common.InitLogger(cfg)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler(filepath.Join(*project, ".ostendo", "logs"))

	storage := openStorage(cfg, logger)
	defer closeStorage(storage, logger)

	start := time.Now()
	result, err := pipeline.New(cfg, storage, logger).Generate(context.Background(), *project)
	recordCommand(*project, cfg, "generate", start, err)
	if err != nil {
		return err
	}

	fmt.Printf("Deck written to %s (%d artifacts)\n", result.OutDir, len(result.Artifacts))
	if result.Payload.Quality != nil && !result.Payload.Quality.Passed {
		fmt.Println("Quality gate reported warnings; run 'ostendo validate' for details.")
	}
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to scan")
	preset := fs.String("preset", "", "Named preset to apply")
	strict := fs.Bool("strict", false, "Treat quality warnings as errors")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args)

	cfg, err := loadConfig(*project, *configPath, *preset)
	if err != nil {
		return err
	}
	if *strict {
		cfg.Generate.Strict = true
	}

	logger := common.InitLogger(cfg)

	storage := openStorage(cfg, logger)
	defer closeStorage(storage, logger)

	start := time.Now()
	payload, err := pipeline.New(cfg, storage, logger).Validate(context.Background(), *project)
	recordCommand(*project, cfg, "validate", start, err)
	if err != nil {
		if payload != nil {
			printQualityIssues(payload)
		}
		return err
	}

	printQualityIssues(payload)
	fmt.Printf("Quality gate passed: %d slides, %d evidence entries\n",
		len(payload.Slides), len(payload.Evidence))
	return nil
}

func runPackage(args []string) error {
	if len(args) < 1 || args[0] != "devpost" {
		return common.NewAppError(common.CodeInvalidInput, "usage: ostendo package devpost [flags]", nil)
	}

	fs := flag.NewFlagSet("package devpost", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to scan")
	out := fs.String("out", "", "Archive path (default: <out_dir>/devpost.zip)")
	preset := fs.String("preset", "", "Named preset to apply")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args[1:])

	cfg, err := loadConfig(*project, *configPath, *preset)
	if err != nil {
		return err
	}

	logger := common.InitLogger(cfg)
	common.PrintBanner(common.GetVersion())

	storage := openStorage(cfg, logger)
	defer closeStorage(storage, logger)

	zipPath := *out
	if zipPath == "" {
		zipPath = filepath.Join(cfg.Generate.OutDir, "devpost.zip")
	}

	start := time.Now()
	written, err := pipeline.New(cfg, storage, logger).Package(context.Background(), *project, zipPath)
	recordCommand(*project, cfg, "package", start, err)
	if err != nil {
		return err
	}

	fmt.Printf("Submission archive written to %s\n", written)
	return nil
}

// applyGenerateFlags layers explicit flags over the loaded config.
// Boolean flags only override when actually passed, so presets keep
// their values unless the user says otherwise.
func applyGenerateFlags(fs *flag.FlagSet, cfg *common.Config, out, types string, withAI bool, model string, strict bool) {
	passed := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { passed[f.Name] = true })

	if out != "" {
		cfg.Generate.OutDir = out
	}
	if types != "" {
		var slideTypes []string
		for _, t := range strings.Split(types, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				slideTypes = append(slideTypes, trimmed)
			}
		}
		cfg.Generate.SlideTypes = slideTypes
	}
	if model != "" {
		cfg.AI.Model = model
	}
	if passed["with-ai"] {
		cfg.Generate.WithAI = withAI
		if withAI && cfg.AI.Mode == common.AIModeOff {
			cfg.AI.Mode = common.AIModeHybrid
		}
		if !withAI {
			cfg.AI.Mode = common.AIModeOff
		}
	}
	if passed["strict"] {
		cfg.Generate.Strict = strict
	}
}

func printQualityIssues(payload *models.Payload) {
	if payload.Quality == nil {
		return
	}
	for _, issue := range payload.Quality.Errors {
		fmt.Printf("error  [%s] %s\n", issue.Rule, issue.Message)
	}
	for _, issue := range payload.Quality.Warnings {
		fmt.Printf("warn   [%s] %s\n", issue.Rule, issue.Message)
	}
}

// recordCommand queues a telemetry event for the run. No-op unless
// telemetry is enabled in config.
func recordCommand(projectDir string, cfg *common.Config, command string, start time.Time, err error) {
	status := "ok"
	payload := map[string]any{
		"command":         command,
		"duration_bucket": telemetry.DurationBucket(time.Since(start)),
	}
	if err != nil {
		status = "error"
		payload["error_code"] = string(common.CodeOf(err))
	}
	payload["status"] = status
	if cfg.Generate.Preset != "" {
		payload["preset"] = cfg.Generate.Preset
	}

	telemetry.NewRecorder(projectDir, cfg.Telemetry, common.GetLogger()).Record(command, payload)
}
