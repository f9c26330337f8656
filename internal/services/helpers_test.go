package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/repositories/postgres"
	"github.com/kimconnect/internship-service/internal/testutil"
)

type testEnv struct {
	ctx       context.Context
	db        *gorm.DB
	repo      repositories.Repository
	fx        *testutil.Fixtures
	publisher *events.MockEventPublisher
	deps      Dependencies
}

// newTestEnv wires the real repositories over in-memory SQLite. Pass a
// miniredis instance to enable caching and revocation.
func newTestEnv(t *testing.T, mr *miniredis.Miniredis) *testEnv {
	t.Helper()

	var client *redis.Client
	if mr != nil {
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testutil.NewTestDB(t)
	cacheManager := cache.NewCacheManager(client)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:           db,
		RedisClient:  client,
		CacheManager: cacheManager,
	})
	publisher := events.NewMockEventPublisher(logger)

	deps := withDefaults(Dependencies{
		DB:        db,
		Repo:      repo,
		Logger:    logger,
		Cache:     cacheManager,
		Publisher: publisher,
		Tokens:    auth.NewTokenService("test-secret", time.Hour, "internship-service-test"),
		Passwords: auth.NewBcryptHasher(4),
	})

	return &testEnv{
		ctx:       context.Background(),
		db:        db,
		repo:      repo,
		fx:        testutil.NewFixtures(t, db),
		publisher: publisher,
		deps:      deps,
	}
}

func studentPrincipal(p *models.StudentProfile) auth.Principal {
	return auth.Principal{UserID: p.UserID, Role: models.RoleStudent}
}

func employerPrincipal(p *models.EmployerProfile) auth.Principal {
	return auth.Principal{UserID: p.UserID, Role: models.RoleEmployer}
}

func (e *testEnv) admin(t *testing.T) auth.Principal {
	t.Helper()
	user := e.fx.User(models.RoleAdmin, models.UserStatusActive)
	return auth.Principal{UserID: user.ID, Role: models.RoleAdmin}
}

func ptr[T any](v T) *T {
	return &v
}

var errWriteRefused = errors.New("write refused")

// refuseUpdates makes every later UPDATE against table fail, including those
// issued inside transactions.
func (e *testEnv) refuseUpdates(t *testing.T, table string) {
	t.Helper()
	err := e.db.Callback().Update().Before("gorm:update").Register("test:refuse_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(errWriteRefused)
		}
	})
	require.NoError(t, err)
}
