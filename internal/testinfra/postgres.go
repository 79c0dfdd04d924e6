// Package testinfra starts throwaway infrastructure for integration tests.
package testinfra

import (
	"context"
	"net/url"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the image used for database integration tests.
const PostgresImage = "postgres:16-alpine"

// SkipIfNoDocker skips the test in -short mode or when Docker is unavailable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// Postgres starts a PostgreSQL container for the lifetime of t and returns
// its connection URL.
func Postgres(t *testing.T) string {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("sparkifydb"),
		postgres.WithUsername("student"),
		postgres.WithPassword("student"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("building connection string: %v", err)
	}
	return url
}

// WithDatabase returns rawURL pointed at another database on the same server.
func WithDatabase(t *testing.T, rawURL, name string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parsing connection string: %v", err)
	}
	u.Path = "/" + name
	return u.String()
}
