package integration

import (
	"context"
	"testing"
	"time"

	"fersal/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the voucher ledger schema for testing. Column names
// mirror the legacy store and are part of the external contract.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS vouchers (
			code VARCHAR(32) PRIMARY KEY,
			amount VARCHAR(16) NOT NULL,
			expiry_date TIMESTAMP,
			is_used BOOLEAN NOT NULL DEFAULT FALSE,
			date_added TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			date_used TIMESTAMP,
			source VARCHAR(50) NOT NULL,
			source_url TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_vouchers_available ON vouchers(amount, is_used);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedVouchers inserts test voucher data into the database.
func SeedVouchers(t *testing.T, pool *pgxpool.Pool, vouchers []model.Voucher) {
	t.Helper()

	ctx := context.Background()

	for _, v := range vouchers {
		_, err := pool.Exec(ctx,
			`INSERT INTO vouchers (code, amount, expiry_date, is_used, date_added, date_used, source, source_url)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.Code, v.Amount, v.ExpiryDate, v.IsUsed, v.DateAdded, v.DateUsed, v.Source, v.SourceURL,
		)
		if err != nil {
			t.Fatalf("failed to seed voucher %s: %v", v.Code, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	if _, err := pool.Exec(ctx, "DELETE FROM vouchers"); err != nil {
		t.Logf("failed to clean vouchers table: %v", err)
	}
}
