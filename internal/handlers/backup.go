package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/neogan74/fedbridge/internal/logger"
	"github.com/neogan74/fedbridge/internal/middleware"
	"github.com/neogan74/fedbridge/internal/persistence"
)

// BackupHandler handles backup and restore operations
type BackupHandler struct {
	engine    persistence.Engine
	backupDir string
	log       logger.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(engine persistence.Engine, backupDir string, log logger.Logger) *BackupHandler {
	return &BackupHandler{
		engine:    engine,
		backupDir: backupDir,
		log:       log,
	}
}

// CreateBackup creates a backup of the current data
func (h *BackupHandler) CreateBackup(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	timestamp := time.Now().Format("20060102-150405")
	backupPath := filepath.Join(h.backupDir, fmt.Sprintf("fedbridge-backup-%s.db", timestamp))

	if err := os.MkdirAll(h.backupDir, 0o755); err != nil {
		log.Error("Failed to create backup directory", logger.Error(err))
		return middleware.InternalServerError(c, "Failed to create backup")
	}

	if err := h.engine.Backup(backupPath); err != nil {
		log.Error("Failed to create backup", logger.Error(err))
		return middleware.InternalServerError(c, "Failed to create backup")
	}

	log.Info("Backup created successfully", logger.String("path", backupPath))

	return c.JSON(fiber.Map{
		"message":     "Backup created successfully",
		"backup_path": backupPath,
		"timestamp":   timestamp,
	})
}

// RestoreBackup restores data from a backup file
func (h *BackupHandler) RestoreBackup(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	var body struct {
		BackupPath string `json:"backup_path"`
	}

	if err := c.BodyParser(&body); err != nil {
		return middleware.BadRequest(c, "Invalid JSON body")
	}

	if body.BackupPath == "" {
		return middleware.BadRequest(c, "backup_path is required")
	}

	if err := h.engine.Restore(body.BackupPath); err != nil {
		log.Error("Failed to restore backup",
			logger.String("backup_path", body.BackupPath),
			logger.Error(err))
		return middleware.InternalServerError(c, "Failed to restore backup")
	}

	log.Info("Backup restored successfully", logger.String("path", body.BackupPath))

	return c.JSON(fiber.Map{
		"message": "Backup restored successfully",
		"path":    body.BackupPath,
	})
}

// ListBackups lists available backup files
func (h *BackupHandler) ListBackups(c *fiber.Ctx) error {
	log := middleware.GetLogger(c)

	entries, err := os.ReadDir(h.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(fiber.Map{"count": 0, "backups": []string{}})
		}
		log.Error("Failed to read backup directory", logger.Error(err))
		return middleware.InternalServerError(c, "Failed to list backups")
	}

	backups := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		backups = append(backups, filepath.Join(h.backupDir, entry.Name()))
	}

	return c.JSON(fiber.Map{
		"count":   len(backups),
		"backups": backups,
	})
}
