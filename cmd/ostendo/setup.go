package main

import (
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/interfaces"
	"github.com/ternarybob/ostendo/internal/presets"
	"github.com/ternarybob/ostendo/internal/storage/badger"
)

// loadConfig builds the layered configuration for a command run:
// defaults -> user file -> project file -> explicit -config -> env,
// then the preset overlay, then per-flag overrides in the caller.
func loadConfig(projectDir, configPath, preset string) (*common.Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "invalid project path", err)
	}

	cfg, err := common.LoadLayered(abs, configPath)
	if err != nil {
		return nil, err
	}

	name := preset
	if name == "" {
		name = cfg.Generate.Preset
	}
	if err := presets.Apply(cfg, name); err != nil {
		return nil, err
	}

	// Paths from config are relative to the project, not the CWD.
	if !filepath.IsAbs(cfg.Generate.OutDir) {
		cfg.Generate.OutDir = filepath.Join(abs, cfg.Generate.OutDir)
	}
	if !filepath.IsAbs(cfg.Storage.Badger.Path) {
		cfg.Storage.Badger.Path = filepath.Join(abs, cfg.Storage.Badger.Path)
	}

	return cfg, nil
}

// openStorage opens the media cache. A cache failure degrades to a nil
// manager rather than blocking generation.
func openStorage(cfg *common.Config, logger arbor.ILogger) interfaces.StorageManager {
	manager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Storage.Badger.Path).
			Msg("Media cache unavailable, continuing without it")
		return nil
	}
	return manager
}

func mediaCacheOf(manager interfaces.StorageManager) interfaces.MediaCache {
	if manager == nil {
		return nil
	}
	return manager.MediaCache()
}

func closeStorage(manager interfaces.StorageManager, logger arbor.ILogger) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close media cache")
	}
}
