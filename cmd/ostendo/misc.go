package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/doctor"
	"github.com/ternarybob/ostendo/internal/presets"
)

func runPresets(args []string) error {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print presets as JSON")
	fs.Parse(args)

	all := presets.List()

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(all)
	}

	fmt.Println("Available presets:")
	for _, preset := range all {
		fmt.Printf("  %-18s %s\n", preset.Name, preset.Description)
		fmt.Printf("  %-18s slides: %s\n", "", strings.Join(preset.SlideTypes, ", "))
	}
	return nil
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to check")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	fs.Parse(args)

	report := doctor.New(common.GetLogger()).Run(context.Background(), *project)

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		for _, check := range report.Checks {
			fmt.Printf("%-4s %-14s %s\n", statusMark(check.Status), check.ID, check.Message)
			if check.Hint != "" {
				fmt.Printf("     %-14s hint: %s\n", "", check.Hint)
			}
		}
		fmt.Printf("\n%d passed, %d warnings, %d failed\n",
			report.Summary.Passed, report.Summary.Warnings, report.Summary.Failed)
	}

	if report.Summary.Status == doctor.StatusFail {
		return common.NewAppError(common.CodeConfigError, "environment checks failed", nil).
			WithHint("fix the failing checks above and re-run 'ostendo doctor'")
	}
	return nil
}

func statusMark(status doctor.CheckStatus) string {
	switch status {
	case doctor.StatusPass:
		return "ok"
	case doctor.StatusWarn:
		return "warn"
	default:
		return "FAIL"
	}
}
