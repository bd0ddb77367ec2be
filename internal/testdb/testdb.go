//go:build integration

// Package testdb starts a disposable PostgreSQL for integration tests and
// applies the repository migrations to it.
package testdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"goods-be/internal/db"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

var (
	once     sync.Once
	shared   *sql.DB
	startErr error
)

const tables = `outbox_events, order_items, orders, contacts, product_parameters,
	parameters, product_infos, products, category_shops, categories, shops, users`

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func start() (*sql.DB, error) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("goods_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	m, err := db.NewMigrator(database, migrationsDir(), zap.NewNop())
	if err != nil {
		return nil, err
	}
	if err := m.Up(); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns the package-wide database with every table emptied.
func New(t *testing.T) *sql.DB {
	t.Helper()

	once.Do(func() { shared, startErr = start() })
	require.NoError(t, startErr, "failed to start postgres")

	_, err := shared.Exec("TRUNCATE " + tables + " RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return shared
}

func CreateUser(t *testing.T, database *sql.DB, email, userType string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, database.QueryRow(
		`INSERT INTO users (email, password, type) VALUES ($1, 'x', $2) RETURNING id`,
		email, userType,
	).Scan(&id))
	return id
}

func CreateContact(t *testing.T, database *sql.DB, userID int64) int64 {
	t.Helper()
	var id int64
	require.NoError(t, database.QueryRow(
		`INSERT INTO contacts (user_id, city, street, phone) VALUES ($1, 'Москва', 'Тверская', '+70000000000') RETURNING id`,
		userID,
	).Scan(&id))
	return id
}

func Count(t *testing.T, database *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(query, args...).Scan(&n))
	return n
}
