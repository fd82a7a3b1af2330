package storage

import (
	"context"
	"io"
)

// Storage defines the interface for photo storage backends
type Storage interface {
	// Put stores a file at the given key
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes a file by its key. Returns nil if file doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for a file given its key
	GetURL(key string) string
}

// Config selects and configures a storage backend
type Config struct {
	Driver string // local or s3

	LocalPath string
	BaseURL   string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// New builds the storage backend named by cfg.Driver
func New(cfg Config) (Storage, error) {
	if cfg.Driver == "s3" {
		return NewS3Storage(cfg)
	}
	return NewLocalStorage(cfg.LocalPath, cfg.BaseURL)
}
