package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads configuration from environment variables.
//
// Recognized variables:
//
//	PORT                  - Server port (default: "8080")
//	ENVIRONMENT           - Runtime environment (default: "development")
//	DATABASE_URL          - "postgresql://..." selects postgres; empty or
//	                        "memory" selects the in-memory repository
//	STORAGE_TYPE          - "memory" or "s3"
//	STORAGE_BUCKET        - bucket name (default: "audio")
//	AWS_S3_ENDPOINT, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
//	AWS_S3_REGION, AWS_S3_USE_PATH_STYLE, AWS_S3_CREATE_BUCKET
//	REQUIRE_AUTH          - "false"/"0" disables auth (honored only in the
//	                        development environment)
//	JWT_SECRET            - HS256 session-verification secret
//	OPENAI_BASE_URL, OPENAI_API_KEY, OPENAI_MODEL, MOCK_AI
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		return applyDatabaseType(c)
	}
}

// applyDatabaseType derives the repository kind from DATABASE_URL.
func applyDatabaseType(c *ServerConfig) error {
	url := c.DatabaseURL

	if url == "" || url == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(url, "postgresql://") || strings.HasPrefix(url, "postgres://") {
		c.DatabaseType = "postgres"
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", url)
}
