// Package storage keeps uploaded files such as payment proofs
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("object not found")

// Storage is a private object store
type Storage interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// SignedURL returns a temporary download URL, or "" when the driver cannot sign
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a driver
type Config struct {
	Driver   string // local, spaces
	LocalDir string
	Spaces   SpacesConfig
}

// New builds the configured driver
func New(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir)
	case "spaces":
		return NewSpacesStorage(cfg.Spaces)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// GenerateKey builds a collision free key: prefix/yyyy/mm/<uuid><ext>
func GenerateKey(prefix, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, now.UTC().Format("2006/01"), uuid.NewString()+strings.ToLower(ext))
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return cleaned, nil
}
