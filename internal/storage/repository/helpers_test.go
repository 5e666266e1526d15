package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cvmanager/cvmanager/internal/migrations"
	"github.com/cvmanager/cvmanager/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for i := 0; i < 10; i++ {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory создаёт тестовые записи.
type TestDataFactory struct {
	storage *Storage
	now     time.Time
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage, now: time.Now().UTC().Truncate(time.Microsecond)}
}

func (f *TestDataFactory) CreateUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		TrialActive:  true,
		CreatedAt:    f.now,
	}
	require.NoError(t, f.storage.CreateUser(context.Background(), u))
	return u
}

func (f *TestDataFactory) CreateTrial(t *testing.T, userID string, trialStart time.Time, paid bool) models.Subscription {
	t.Helper()
	sub := models.Subscription{
		ID:              uuid.NewString(),
		UserID:          userID,
		Plan:            models.PlanProfesional,
		BasePrice:       100000,
		Total:           100000,
		Status:          models.StatusTrial,
		TrialStart:      trialStart,
		TrialEnd:        trialStart.Add(24 * time.Hour),
		PaymentVerified: paid,
		CreatedAt:       trialStart,
		UpdatedAt:       trialStart,
	}
	require.NoError(t, insertSubscription(context.Background(), f.storage.DB, sub))
	return sub
}
