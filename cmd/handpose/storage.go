package main

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/handpose/internal/config"
	"github.com/OCAP2/handpose/internal/database"
	"github.com/OCAP2/handpose/internal/storage"
	gormstorage "github.com/OCAP2/handpose/internal/storage/gorm"
	"github.com/OCAP2/handpose/internal/storage/memory"
)

func createStorageBackend(storageCfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		db, err := database.OpenPostgres(storageCfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info("Postgres pose library initialized", "host", storageCfg.DB.Host)
		return gormstorage.New(db, logger), nil

	case "sqlite":
		db, err := database.OpenSQLite(storageCfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
		}
		logger.Info("SQLite pose library initialized", "path", storageCfg.SQLitePath)
		return gormstorage.New(db, logger), nil

	case "memory", "":
		logger.Info("Memory pose library initialized", "path", storageCfg.MemoryPath)
		return memory.New(memory.Config{Path: storageCfg.MemoryPath}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageCfg.Type)
	}
}
