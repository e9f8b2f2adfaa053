// Package config builds a runnable parentcast service from declarative
// configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parentcast/parentcast/pkg/parentcast"
	repomemory "github.com/parentcast/parentcast/pkg/parentcast/repo/memory"
	repopg "github.com/parentcast/parentcast/pkg/parentcast/repo/postgres"
	memorystorage "github.com/parentcast/parentcast/pkg/parentcast/storage/memory"
	s3storage "github.com/parentcast/parentcast/pkg/parentcast/storage/s3"
	"github.com/parentcast/parentcast/pkg/parentcast/summary"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WithOptions applies programmatic overrides on top of whatever was loaded
// before it.
func WithOptions(fn func(*ServerConfig)) Option {
	return func(c *ServerConfig) error {
		fn(c)
		return nil
	}
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		StorageType:  "memory",
		Bucket:       "audio",
		RequireAuth:  true,
		Summary: SummaryConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// ServerConfig represents server configuration for the parentcast service.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string // "memory", "postgres"; derived from DatabaseURL

	// Storage configuration
	StorageType string `env:"STORAGE_TYPE" env-default:"memory"` // "memory", "s3"
	Bucket      string `env:"STORAGE_BUCKET" env-default:"audio"`
	S3          S3Config

	// Auth configuration
	RequireAuth bool   `env:"REQUIRE_AUTH" env-default:"true"`
	JWTSecret   string `env:"JWT_SECRET"`

	// Summary proxy configuration
	Summary SummaryConfig
}

// S3Config carries credentials for the S3-compatible object store.
type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// SummaryConfig carries settings for the completion-API client.
type SummaryConfig struct {
	BaseURL string `env:"OPENAI_BASE_URL"`
	APIKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	Mock    bool   `env:"MOCK_AI" env-default:"false"`
}

// Development reports whether the server runs in the development
// environment. Only then may REQUIRE_AUTH=0 actually disable auth.
func (c *ServerConfig) Development() bool {
	return c.Environment == "development"
}

// AuthDisabled reports whether unauthenticated access is explicitly and
// legitimately enabled. Outside development, disabling auth does not grant
// anonymous access; the API answers 503 instead.
func (c *ServerConfig) AuthDisabled() bool {
	return !c.RequireAuth && c.Development()
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database url is required when using postgres")
	}

	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage type must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.Bucket == "" {
		return errors.New("bucket is required when using s3 storage")
	}

	if c.RequireAuth && c.JWTSecret == "" {
		return errors.New("jwt secret is required when auth is enabled")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
func (c *ServerConfig) BuildService(logger *slog.Logger) (parentcast.Service, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	return parentcast.New(
		parentcast.WithRepository(repo),
		parentcast.WithBlobStore(c.Bucket, store),
		parentcast.WithLogger(logger),
	)
}

// BuildSummaryClient creates the completion-API client.
func (c *ServerConfig) BuildSummaryClient() *summary.Client {
	return summary.NewClient(summary.Config{
		BaseURL: c.Summary.BaseURL,
		APIKey:  c.Summary.APIKey,
		Model:   c.Summary.Model,
		Mock:    c.Summary.Mock,
	})
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (parentcast.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) buildBlobStore() (parentcast.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
