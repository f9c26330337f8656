package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user             repositories.UserRepository
	identity         repositories.IdentityRepository
	studentProfile   repositories.StudentProfileRepository
	employerProfile  repositories.EmployerProfileRepository
	skill            repositories.SkillRepository
	opportunity      repositories.OpportunityRepository
	savedOpportunity repositories.SavedOpportunityRepository
	application      repositories.ApplicationRepository
	certificate      repositories.CertificateRepository
	dashboard        repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig

	// Optional; built from RedisClient when nil
	CacheManager *cache.CacheManager
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := config.CacheManager
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(config.RedisClient)
	}

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.user = NewUserPostgreSQL(config.DB)
	repo.studentProfile = NewStudentProfilePostgreSQL(config.DB)
	repo.employerProfile = NewEmployerProfilePostgreSQL(config.DB)
	repo.savedOpportunity = NewSavedOpportunityPostgreSQL(config.DB)
	repo.application = NewApplicationPostgreSQL(config.DB)
	repo.certificate = NewCertificatePostgreSQL(config.DB)

	// Cached repositories
	repo.skill = NewSkillPostgreSQL(config.DB, cacheManager)
	repo.opportunity = NewOpportunityPostgreSQL(config.DB, cacheManager)
	repo.dashboard = NewDashboardRepository(config.DB, cacheManager)

	// SSO tokens are verified by Casdoor when enabled
	repo.identity = casdoor.NewIdentityCasdoor(config.CasdoorConfig)

	return repo
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) Identity() repositories.IdentityRepository {
	return r.identity
}

func (r *PostgreSQLRepository) StudentProfile() repositories.StudentProfileRepository {
	return r.studentProfile
}

func (r *PostgreSQLRepository) EmployerProfile() repositories.EmployerProfileRepository {
	return r.employerProfile
}

func (r *PostgreSQLRepository) Skill() repositories.SkillRepository {
	return r.skill
}

func (r *PostgreSQLRepository) Opportunity() repositories.OpportunityRepository {
	return r.opportunity
}

func (r *PostgreSQLRepository) SavedOpportunity() repositories.SavedOpportunityRepository {
	return r.savedOpportunity
}

func (r *PostgreSQLRepository) Application() repositories.ApplicationRepository {
	return r.application
}

func (r *PostgreSQLRepository) Certificate() repositories.CertificateRepository {
	return r.certificate
}

func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository {
	return r.dashboard
}

// WithTransaction executes fn with sub-repositories bound to one transaction.
// Cache invalidations still run; cached reads are bypassed.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.user = NewUserPostgreSQL(tx)
		txRepo.studentProfile = NewStudentProfilePostgreSQL(tx)
		txRepo.employerProfile = NewEmployerProfilePostgreSQL(tx)
		txRepo.savedOpportunity = NewSavedOpportunityPostgreSQL(tx)
		txRepo.application = NewApplicationPostgreSQL(tx)
		txRepo.certificate = NewCertificatePostgreSQL(tx)

		txRepo.skill = &SkillPostgreSQL{db: tx, cacheManager: r.cacheManager, transactional: true}
		txRepo.opportunity = &OpportunityPostgreSQL{
			db:            tx,
			helpers:       NewSharedHelpers(tx),
			cacheManager:  r.cacheManager,
			transactional: true,
		}
		txRepo.dashboard = NewDashboardRepository(tx, cache.NewCacheManager(nil))

		// Identity is external and not transactional
		txRepo.identity = r.identity

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.cacheManager.Enabled() {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connectivity and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
