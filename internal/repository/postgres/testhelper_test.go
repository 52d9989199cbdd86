//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/inboundemail/inbound-core/internal/model"
)

var testPool *pgxpool.Pool

// Fixed IDs used across all integration tests, matching the testutil constants.
var (
	fixedTime  = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	testUserID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("inbound_core_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	mig, err := migrate.New("file://../../../db/migrations", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init migrations: %v\n", err)
		os.Exit(1)
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	srcErr, dbErr := mig.Close()
	if srcErr != nil || dbErr != nil {
		fmt.Fprintf(os.Stderr, "migration close errors: src=%v db=%v\n", srcErr, dbErr)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = pgContainer.Terminate(ctx)

	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	tables := []string{
		"delivery_attempts", "parsed_emails", "email_records", "ingestion_events",
		"sent_messages", "email_addresses", "endpoints",
		"domain_dns_records", "domains", "api_keys", "users",
	}
	for _, table := range tables {
		_, err := testPool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("truncating %s: %v", table, err)
		}
	}
}

func seedUser(t *testing.T, ctx context.Context) {
	t.Helper()

	_, err := testPool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		testUserID, "test@example.com",
		"$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ012",
		"Test User", true, fixedTime)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

// newTestDomain creates a test domain model for integration tests.
func newTestDomain() *model.Domain {
	return &model.Domain{
		ID:        uuid.New(),
		OwnerUser: testUserID,
		Name:      "example.com",
		Status:    model.DomainStatusPending,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
}

// newTestAPIKey creates a test API key model for integration tests.
func newTestAPIKey() *model.APIKey {
	return &model.APIKey{
		ID:        uuid.New(),
		OwnerUser: testUserID,
		Name:      "Test Key",
		KeyHash:   "abc123hash",
		Prefix:    "re_1234abcd",
		CreatedAt: fixedTime,
	}
}

// newTestEndpoint creates a test webhook endpoint for integration tests.
func newTestEndpoint() *model.Endpoint {
	return &model.Endpoint{
		ID:        uuid.New(),
		OwnerUser: testUserID,
		Name:      "Test Webhook",
		Type:      model.EndpointTypeWebhook,
		Config: model.JSONMap{
			"url":            "https://example.com/hook",
			"timeout_s":      float64(30),
			"retry_attempts": float64(0),
		},
		IsActive:  true,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
}
