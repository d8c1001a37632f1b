package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/ostendo/internal/benchmark"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/docs"
	"github.com/ternarybob/ostendo/internal/models"
	"github.com/ternarybob/ostendo/internal/visuals"
)

func runImages(args []string) error {
	if len(args) < 1 {
		return common.NewAppError(common.CodeInvalidInput, "usage: ostendo images scan|report|benchmark [flags]", nil)
	}
	sub := args[0]
	if sub == "benchmark" {
		return runImagesBenchmark(args[1:])
	}
	if sub != "scan" && sub != "report" {
		return common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("unknown images subcommand: %s", sub), nil).
			WithHint("use 'scan', 'report', or 'benchmark'")
	}

	fs := flag.NewFlagSet("images "+sub, flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to scan")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args[1:])

	cfg, err := loadConfig(*project, *configPath, "")
	if err != nil {
		return err
	}

	logger := common.InitLogger(cfg)

	storage := openStorage(cfg, logger)
	defer closeStorage(storage, logger)

	ctx := context.Background()
	readme, err := docs.NewParser(logger).Parse(*project, cfg.Docs.ReadmePath)
	if err != nil {
		logger.Warn().Err(err).Msg("README unavailable, indexing without doc references")
		readme = &models.ReadmeDoc{}
	}

	indexer := visuals.NewIndexer(&cfg.Visuals, &cfg.Analyzer, mediaCacheOf(storage), logger)
	media, err := indexer.Index(ctx, *project, readme)
	if err != nil {
		return err
	}

	if sub == "scan" {
		printImageScan(media)
	} else {
		printImageReport(media)
	}
	return nil
}

func runImagesBenchmark(args []string) error {
	fs := flag.NewFlagSet("images benchmark", flag.ExitOnError)
	corpus := fs.String("corpus", ".", "Directory of projects to sweep")
	maxProjects := fs.Int("max-projects", 12, "Maximum projects to include")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args)

	cfg, err := loadConfig(*corpus, *configPath, "")
	if err != nil {
		return err
	}
	logger := common.InitLogger(cfg)

	report, err := benchmark.New(cfg, logger).VisualCoverage(context.Background(), *corpus, nil, *maxProjects)
	if err != nil {
		return err
	}

	fmt.Printf("Swept %d projects under %s\n", report.ProjectCount, report.CorpusDir)
	for _, run := range report.Runs {
		fmt.Printf("  min_confidence %.2f: avg coverage %.3f (%d/%d at target, %d failures)\n",
			run.MinConfidence, run.AvgCoverage, run.CoverageGE07, run.CoverageSamples, run.Failures)
	}
	fmt.Printf("Recommended visuals.min_confidence: %.2f (%.2fs)\n",
		report.RecommendedMinConfidence, report.ElapsedSec)
	return nil
}

func printImageScan(media []models.MediaEntry) {
	if len(media) == 0 {
		fmt.Println("No images found.")
		return
	}
	fmt.Printf("%d images indexed:\n", len(media))
	for _, entry := range media {
		dims := ""
		if entry.Width > 0 && entry.Height > 0 {
			dims = fmt.Sprintf(" %dx%d", entry.Width, entry.Height)
		}
		fmt.Printf("  %-50s %s%s\n", entry.Path, visuals.FormatMime(entry.Mime), dims)
	}
}

func printImageReport(media []models.MediaEntry) {
	if len(media) == 0 {
		fmt.Println("No images found.")
		return
	}

	byTag := map[string]int{}
	byFormat := map[string]int{}
	docLinked := 0
	for _, entry := range media {
		byFormat[visuals.FormatMime(entry.Mime)]++
		if entry.Kind == models.MediaDocImage {
			docLinked++
		}
		for _, tag := range entry.Tags {
			byTag[tag]++
		}
	}

	fmt.Printf("Images: %d total, %d referenced from the README\n", len(media), docLinked)

	fmt.Println("By format:")
	for _, line := range sortedCounts(byFormat) {
		fmt.Println("  " + line)
	}
	if len(byTag) > 0 {
		fmt.Println("By tag:")
		for _, line := range sortedCounts(byTag) {
			fmt.Println("  " + line)
		}
	}
}

func sortedCounts(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%-20s %d", key, counts[key]))
	}
	return lines
}
