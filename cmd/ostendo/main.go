package main

import (
	"fmt"
	"os"

	"github.com/ternarybob/ostendo/internal/common"
)

const usageText = `ostendo - evidence-grounded presentation generator

Usage:
  ostendo <command> [flags]

Commands:
  generate    Scan the project and write the deck bundle
  validate    Run the pipeline and quality gate without writing files
  studio      Start the local editing server
  init        Write a starter ostendo.toml into the project
  sample      Create a small sample project to try the generator on
  package     Build a submission archive (package devpost)
  images      Inspect project media (images scan|report|benchmark)
  models      Manage local inference models (models list|install)
  presets     List available generation presets
  doctor      Run local environment checks
  telemetry   Manage opt-in usage metrics (enable|disable|status|flush)
  version     Print version information

Run "ostendo <command> -h" for command flags.
`

func main() {
	defer common.RecoverWithCrashFile()

	common.LoadVersionFromFile()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "generate":
		err = runGenerate(args)
	case "validate":
		err = runValidate(args)
	case "studio":
		err = runStudio(args)
	case "init":
		err = runInit(args)
	case "sample":
		err = runSample(args)
	case "models":
		err = runModels(args)
	case "package":
		err = runPackage(args)
	case "images":
		err = runImages(args)
	case "presets":
		err = runPresets(args)
	case "doctor":
		err = runDoctor(args)
	case "telemetry":
		err = runTelemetry(args)
	case "version", "-version", "--version", "-v":
		fmt.Printf("ostendo %s\n", common.GetFullVersion())
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usageText)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := common.HintOf(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(common.ExitCodeFor(err))
	}
}
