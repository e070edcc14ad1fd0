package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"rapidreport/config"
)

// ConfigProvider defines read access to the effective configuration.
type ConfigProvider interface {
	GetConfig() (config.Config, error)
}

// ConfigPersister defines configuration persistence.
type ConfigPersister interface {
	SaveConfig(cfg config.Config) error
}

// ConfigNotifier defines change-notification registration.
type ConfigNotifier interface {
	OnConfigChanged(callback func(config.Config))
}

// ConfigService owns loading, saving and change notification for the
// settings file under the storage directory.
type ConfigService struct {
	storageDir string
	logger     func(string)
	callbacks  []func(config.Config)
	mu         sync.RWMutex
}

// NewConfigService creates a new ConfigService instance
func NewConfigService(logger func(string)) *ConfigService {
	return &ConfigService{
		logger:    logger,
		callbacks: make([]func(config.Config), 0),
	}
}

// Name returns the service name
func (cs *ConfigService) Name() string {
	return "config"
}

// Initialize ensures the storage directory exists.
func (cs *ConfigService) Initialize(ctx context.Context) error {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return WrapError("config", "Initialize", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError("config", "Initialize", fmt.Errorf("failed to create storage dir: %w", err))
	}
	cs.log(fmt.Sprintf("ConfigService initialized, storage dir: %s", dir))
	return nil
}

// Shutdown closes the config service (no-op).
func (cs *ConfigService) Shutdown() error {
	return nil
}

// GetStorageDir returns the storage directory path (~/RapidReport by default).
func (cs *ConfigService) GetStorageDir() (string, error) {
	cs.mu.RLock()
	sd := cs.storageDir
	cs.mu.RUnlock()

	if sd != "" {
		return sd, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError("config", "GetStorageDir", err)
	}
	return filepath.Join(home, "RapidReport"), nil
}

// SetStorageDir overrides the storage directory (mainly for tests).
func (cs *ConfigService) SetStorageDir(dir string) {
	cs.mu.Lock()
	cs.storageDir = dir
	cs.mu.Unlock()
}

// GetConfigPath returns the settings file path.
func (cs *ConfigService) GetConfigPath() (string, error) {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfig loads the settings file from disk, falling back to defaults
// when it does not exist yet.
func (cs *ConfigService) GetConfig() (config.Config, error) {
	path, err := cs.GetConfigPath()
	if err != nil {
		return config.Config{}, err
	}

	dir, err := cs.GetStorageDir()
	if err != nil {
		return config.Config{}, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.Defaults()
		cfg.DataCacheDir = dir
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	// Apply defaults for empty fields
	defaults := config.Defaults()
	if cfg.DataCacheDir == "" {
		cfg.DataCacheDir = dir
	}
	if cfg.Port <= 0 {
		cfg.Port = defaults.Port
	}
	if cfg.ReportTitle == "" {
		cfg.ReportTitle = defaults.ReportTitle
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaults.OutputFormat
	}
	if cfg.GroupSlideStyle == "" {
		cfg.GroupSlideStyle = defaults.GroupSlideStyle
	}
	if cfg.RetentionHours <= 0 {
		cfg.RetentionHours = defaults.RetentionHours
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaults.MaxUploadMB
	}

	return cfg, nil
}

// SaveConfig persists the configuration to disk and triggers all callbacks.
func (cs *ConfigService) SaveConfig(cfg config.Config) error {
	// Validate DataCacheDir exists if set
	if cfg.DataCacheDir != "" {
		info, err := os.Stat(cfg.DataCacheDir)
		if err != nil {
			if os.IsNotExist(err) {
				return WrapError("config", "SaveConfig", fmt.Errorf("data cache directory does not exist: %s", cfg.DataCacheDir))
			}
			return WrapError("config", "SaveConfig", err)
		}
		if !info.IsDir() {
			return WrapError("config", "SaveConfig", fmt.Errorf("data cache path is not a directory: %s", cfg.DataCacheDir))
		}
	}

	switch cfg.OutputFormat {
	case "", "pptx", "pdf", "xlsx":
	default:
		return WrapError("config", "SaveConfig", fmt.Errorf("unsupported output format: %s", cfg.OutputFormat))
	}
	switch cfg.GroupSlideStyle {
	case "", "table", "chart":
	default:
		return WrapError("config", "SaveConfig", fmt.Errorf("unsupported group slide style: %s", cfg.GroupSlideStyle))
	}

	dir, err := cs.GetStorageDir()
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to create storage dir: %w", err))
	}

	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to marshal config: %w", err))
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to write config file: %w", err))
	}

	cs.log("Configuration saved to disk")

	cs.NotifyConfigChanged(cfg)

	return nil
}

// OnConfigChanged registers a configuration change callback.
func (cs *ConfigService) OnConfigChanged(callback func(config.Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.callbacks = append(cs.callbacks, callback)
}

// NotifyConfigChanged invokes every registered callback.
func (cs *ConfigService) NotifyConfigChanged(cfg config.Config) {
	cs.mu.RLock()
	cbs := make([]func(config.Config), len(cs.callbacks))
	copy(cbs, cs.callbacks)
	cs.mu.RUnlock()

	for _, cb := range cbs {
		cb(cfg)
	}
}

func (cs *ConfigService) log(msg string) {
	if cs.logger != nil {
		cs.logger(msg)
	}
}
