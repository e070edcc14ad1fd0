package main

import (
	"context"
	"os"
	"sync"
	"testing"

	"pgregory.net/rapid"

	"rapidreport/config"
)

// randomConfig draws a valid Config with a usable data cache directory.
func randomConfig(t *rapid.T, dataDir string) config.Config {
	return config.Config{
		Port:            rapid.IntRange(1, 65535).Draw(t, "port"),
		DataCacheDir:    dataDir,
		ReportTitle:     rapid.StringMatching(`[A-Za-z0-9 ]{1,40}`).Draw(t, "title"),
		OutputFormat:    rapid.SampledFrom([]string{"pptx", "pdf", "xlsx"}).Draw(t, "format"),
		GroupSlideStyle: rapid.SampledFrom([]string{"table", "chart"}).Draw(t, "style"),
		RetentionHours:  rapid.IntRange(1, 720).Draw(t, "retention"),
		MaxUploadMB:     rapid.IntRange(1, 128).Draw(t, "maxUpload"),
		DetailedLog:     rapid.Bool().Draw(t, "detailedLog"),
	}
}

// TestConfigRoundTripProperty verifies that any valid configuration survives
// a save/load cycle unchanged.
func TestConfigRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tmpDir, err := os.MkdirTemp("", "config_test_*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(tmpDir)

		cs := NewConfigService(nil)
		cs.SetStorageDir(tmpDir)

		cfg := randomConfig(t, tmpDir)
		if err := cs.SaveConfig(cfg); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := cs.GetConfig()
		if err != nil {
			t.Fatalf("GetConfig failed: %v", err)
		}
		if loaded != cfg {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
		}
	})
}

// TestConfigChangeNotificationProperty verifies that every registered
// callback fires on save and receives the exact saved configuration.
func TestConfigChangeNotificationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		callbackCount := rapid.IntRange(1, 20).Draw(t, "callbackCount")

		tmpDir, err := os.MkdirTemp("", "config_test_*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(tmpDir)

		cs := NewConfigService(nil)
		cs.SetStorageDir(tmpDir)
		if err := cs.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		var mu sync.Mutex
		var received []config.Config
		for i := 0; i < callbackCount; i++ {
			cs.OnConfigChanged(func(cfg config.Config) {
				mu.Lock()
				defer mu.Unlock()
				received = append(received, cfg)
			})
		}

		cfg := randomConfig(t, tmpDir)
		if err := cs.SaveConfig(cfg); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(received) != callbackCount {
			t.Fatalf("expected %d callbacks, got %d", callbackCount, len(received))
		}
		for i, got := range received {
			if got != cfg {
				t.Fatalf("callback %d received %+v, want %+v", i, got, cfg)
			}
		}
	})
}
