package main

import (
	"flag"
	"fmt"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/telemetry"
)

func runTelemetry(args []string) error {
	if len(args) < 1 {
		return common.NewAppError(common.CodeInvalidInput,
			"usage: ostendo telemetry enable|disable|status|flush [flags]", nil)
	}
	sub := args[0]

	fs := flag.NewFlagSet("telemetry "+sub, flag.ExitOnError)
	project := fs.String("project", ".", "Project directory")
	endpoint := fs.String("endpoint", "", "Collector endpoint (enable only)")
	dryRun := fs.Bool("dry-run", false, "Report what a flush would send without sending")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args[1:])

	switch sub {
	case "enable":
		if *endpoint == "" {
			return common.NewAppError(common.CodeInvalidInput, "telemetry enable requires -endpoint", nil)
		}
		path, err := telemetry.Enable(*project, *endpoint)
		if err != nil {
			return err
		}
		fmt.Printf("Telemetry enabled in %s\n", path)
		return nil

	case "disable":
		path, err := telemetry.Disable(*project)
		if err != nil {
			return err
		}
		fmt.Printf("Telemetry disabled in %s\n", path)
		return nil

	case "status":
		cfg, err := loadConfig(*project, *configPath, "")
		if err != nil {
			return err
		}
		info := telemetry.Status(*project, cfg.Telemetry)
		fmt.Printf("Enabled:       %t\n", info.Enabled)
		fmt.Printf("Anonymous:     %t\n", info.Anonymous)
		fmt.Printf("Endpoint:      %s\n", orNone(info.Endpoint))
		fmt.Printf("Events file:   %s\n", info.EventsFile)
		fmt.Printf("Queued events: %d\n", info.QueuedEvents)
		return nil

	case "flush":
		cfg, err := loadConfig(*project, *configPath, "")
		if err != nil {
			return err
		}
		result := telemetry.Flush(*project, cfg.Telemetry, telemetry.MaxFlushEvents, *dryRun)
		printFlushResult(result)
		if result.Status == "http-error" || result.Status == "network-error" {
			return common.NewAppError(common.CodeRuntimeError,
				fmt.Sprintf("telemetry flush failed: %s", result.Status), nil)
		}
		return nil

	default:
		return common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("unknown telemetry subcommand: %s", sub), nil).
			WithHint("use enable, disable, status, or flush")
	}
}

func printFlushResult(result telemetry.FlushResult) {
	switch result.Status {
	case "disabled":
		fmt.Println("Telemetry is disabled; nothing to flush.")
	case "no-endpoint":
		fmt.Printf("No endpoint configured; %d events remain queued.\n", result.Remaining)
	case "empty":
		fmt.Println("No queued events.")
	case "dry-run":
		fmt.Printf("Dry run: would send %d events (%d invalid), %d total queued.\n",
			result.WouldSend, result.Dropped, result.Remaining)
	case "empty-batch":
		fmt.Printf("Batch contained no valid events; %d dropped, %d remaining.\n",
			result.Dropped, result.Remaining)
	case "ok":
		fmt.Printf("Sent %d events to %s; %d remaining.\n", result.Sent, result.Endpoint, result.Remaining)
	default:
		fmt.Printf("Flush %s (http %d) %s\n", result.Status, result.HTTPStatus, result.Error)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
