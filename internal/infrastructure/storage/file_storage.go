package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalBlobStore keeps evidence files under a base directory, one folder per case
type LocalBlobStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalBlobStore creates a new LocalBlobStore
func NewLocalBlobStore(baseDir string, logger *zap.Logger) port.BlobStore {
	return &LocalBlobStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Put writes content to cases/<caseID>/<random>-<name> and returns that relative path
func (s *LocalBlobStore) Put(ctx context.Context, caseID int64, fileName string, content []byte) (string, error) {
	if caseID <= 0 {
		return "", fmt.Errorf("invalid case id: %d", caseID)
	}

	name := uuid.NewString()[:8] + "-" + utils.SanitizeFileName(fileName)
	relPath := filepath.Join("cases", strconv.FormatInt(caseID, 10), name)
	fullPath := s.fullPath(relPath)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		s.logger.Error("Failed to create case directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// O_EXCL so a name collision never overwrites earlier evidence
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error("Failed to create file", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Debug("Evidence stored",
		zap.Int64("case_id", caseID),
		zap.String("path", relPath),
		zap.Int("size", len(content)))

	return filepath.ToSlash(relPath), nil
}

// Read returns the content stored at a path returned by Put
func (s *LocalBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath := s.fullPath(path)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalBlobStore) Delete(ctx context.Context, path string) error {
	fullPath := s.fullPath(path)
	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalBlobStore) fullPath(relativePath string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
}

// validatePath checks that the path stays inside baseDir
func (s *LocalBlobStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}
