package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/consultia/expense-portal/internal/application/port"
)

// LocalFileStorage implements port.FileStorage on the local filesystem.
// Stored files get uuid-based names so colliding upload names never
// overwrite each other; the returned URL is the relative path under baseDir.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) port.FileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Store writes content under a fresh uuid key and returns its URL
func (s *LocalFileStorage) Store(ctx context.Context, name string, content []byte) (string, error) {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	fullPath := filepath.Join(s.baseDir, key)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create storage directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File stored",
		zap.String("name", name),
		zap.String("key", key),
		zap.Int("size", len(content)))

	return key, nil
}

// Delete removes a stored file by its URL
func (s *LocalFileStorage) Delete(ctx context.Context, url string) error {
	fullPath := filepath.Join(s.baseDir, url)

	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.logger.Error("Failed to delete file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// validatePath rejects paths escaping the storage root
func (s *LocalFileStorage) validatePath(fullPath string) error {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes storage root: %s", fullPath)
	}

	return nil
}

// Verify interface compliance
var _ port.FileStorage = (*LocalFileStorage)(nil)
