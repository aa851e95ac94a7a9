package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mizusaki/procureflow-backend/pkg/logger"
)

// Client writes generated documents under a configured root directory.
type Client struct {
	root string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient validates the root directory and returns a filesystem store.
func NewClient(ctx context.Context, root string, logg *logger.Logger) (*Client, error) {
	if root == "" {
		return nil, errors.New("documents root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating documents root %q: %w", root, err)
	}
	if logg != nil {
		logg.Info(ctx, "document store initialized")
	}
	return &Client{root: root}, nil
}

// Write stores content at the given relative path. Parent directories
// are created as needed.
func (c *Client) Write(ctx context.Context, relPath string, content []byte) error {
	clean, err := c.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	if err := os.WriteFile(clean, content, 0o644); err != nil {
		return fmt.Errorf("writing document %q: %w", relPath, err)
	}
	return nil
}

// Read returns the stored content at the given relative path.
func (c *Client) Read(ctx context.Context, relPath string) ([]byte, error) {
	clean, err := c.resolve(relPath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", relPath, err)
	}
	return content, nil
}

// Exists reports whether a document is present at the relative path.
func (c *Client) Exists(ctx context.Context, relPath string) (bool, error) {
	clean, err := c.resolve(relPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(clean); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ping verifies the root directory is still writable.
func (c *Client) Ping(ctx context.Context) error {
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("documents root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("documents root %q is not a directory", c.root)
	}
	return nil
}

func (c *Client) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", errors.New("document path is required")
	}
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("document path %q escapes the store root", relPath)
	}
	return filepath.Join(c.root, clean), nil
}
