package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalManager implements ports.SecretManager on the local filesystem, one
// file per secret. Development only; production uses Vault or AWS.
type LocalManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalManager creates a file-backed secret manager rooted at basePath.
func NewLocalManager(basePath string, logger *zap.Logger) *LocalManager {
	return &LocalManager{basePath: basePath, logger: logger}
}

// GetSecret reads the secret file for a path.
func (m *LocalManager) GetSecret(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(m.filePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret not found: %s", path)
		}
		return "", fmt.Errorf("read secret %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// PutSecret writes the secret file for a path, creating directories as needed.
func (m *LocalManager) PutSecret(ctx context.Context, path, value string) error {
	filePath := m.filePath(path)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write secret %s: %w", path, err)
	}
	m.logger.Info("secret written", zap.String("path", path))
	return nil
}

// DeleteSecret removes the secret file for a path.
func (m *LocalManager) DeleteSecret(ctx context.Context, path string) error {
	if err := os.Remove(m.filePath(path)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete secret %s: %w", path, err)
	}
	m.logger.Warn("secret deleted", zap.String("path", path))
	return nil
}

func (m *LocalManager) filePath(path string) string {
	return filepath.Join(m.basePath, filepath.FromSlash(path))
}
