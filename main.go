package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"rapidreport/logger"
	"rapidreport/store"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	configSvc := NewConfigService(log.Log)
	if err := configSvc.Initialize(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cfg, err := configSvc.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	logDir := filepath.Join(cfg.DataCacheDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err == nil {
		if err := log.Init(logDir); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: file logging disabled:", err)
		}
	}

	db, err := store.InitDB(cfg.DataCacheDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer db.Close()

	artifacts := store.NewArtifactStore(db, cfg.DataCacheDir)
	jobs := NewJobService(configSvc, artifacts, log.Log)
	retention := NewRetentionService(artifacts, jobs, time.Duration(cfg.RetentionHours)*time.Hour, log.Log)

	registry := NewServiceRegistry(context.Background(), log.Log)
	registry.RegisterCritical(jobs)
	registry.Register(retention)
	if err := registry.InitializeAll(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer registry.ShutdownAll()

	server := NewHTTPServer(jobs, artifacts, configSvc, log.Log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Logf("listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		log.Logf("server stopped: %v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
