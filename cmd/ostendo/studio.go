package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/server"
	"github.com/ternarybob/ostendo/internal/studio"
)

func runStudio(args []string) error {
	fs := flag.NewFlagSet("studio", flag.ExitOnError)
	project := fs.String("project", ".", "Project directory to edit")
	port := fs.Int("port", 0, "Studio port (overrides config)")
	host := fs.String("host", "", "Studio host (must stay loopback)")
	readOnly := fs.Bool("read-only", false, "Disallow slide edits and exports")
	preset := fs.String("preset", "", "Named preset to apply")
	configPath := fs.String("config", "", "Extra config file")
	fs.Parse(args)

	cfg, err := loadConfig(*project, *configPath, *preset)
	if err != nil {
		return err
	}
	common.ApplyFlagOverrides(cfg, *port, *host)

	logger := common.InitLogger(cfg)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler(filepath.Join(*project, ".ostendo", "logs"))

	storage := openStorage(cfg, logger)
	defer closeStorage(storage, logger)

	projectRoot, err := filepath.Abs(*project)
	if err != nil {
		return common.NewAppError(common.CodeInvalidInput, "invalid project path", err)
	}

	state, err := studio.NewState(context.Background(), cfg, storage, projectRoot, *readOnly, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, state, logger)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if startErr := srv.Start(); startErr != nil {
			errChan <- startErr
		}
	}()

	// Give the listener a moment to fail fast on a busy port.
	time.Sleep(100 * time.Millisecond)

	fmt.Printf("Studio ready at %s (Ctrl+C to stop)\n", srv.URL())
	if logPath := common.GetLogFilePath(logger); logPath != "" {
		fmt.Printf("Logs: %s\n", logPath)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info().Msg("Interrupt received, shutting down studio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
