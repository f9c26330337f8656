package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Recommendation RecommendationConfig

	// Number of employers listed in platform stats
	TopEmployers int
}

type RecommendationConfig struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator

	Cache       *cache.CacheManager
	Publisher   events.EventPublisher
	Tokens      *auth.TokenService
	Passwords   auth.PasswordHasher
	Revocations *auth.RevocationStore
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	// Service instances
	authService           AuthService
	profileService        ProfileService
	opportunityService    OpportunityService
	recommendationService RecommendationService
	applicationService    ApplicationService
	certificateService    CertificateService
	adminService          AdminService
	exportService         ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		deps:   withDefaults(deps),
		config: config.withDefaults(),
	}
}

// DefaultServiceManagerConfig mirrors the defaults of the config package.
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		Recommendation: RecommendationConfig{
			DefaultLimit: 5,
			MaxLimit:     50,
			CacheTTL:     cache.RecommendationCacheConfig.TTL,
		},
		TopEmployers: 5,
	}
}

func (c ServiceManagerConfig) withDefaults() ServiceManagerConfig {
	defaults := DefaultServiceManagerConfig()
	if c.Recommendation.DefaultLimit <= 0 {
		c.Recommendation.DefaultLimit = defaults.Recommendation.DefaultLimit
	}
	if c.Recommendation.MaxLimit < c.Recommendation.DefaultLimit {
		c.Recommendation.MaxLimit = max(defaults.Recommendation.MaxLimit, c.Recommendation.DefaultLimit)
	}
	if c.Recommendation.CacheTTL <= 0 {
		c.Recommendation.CacheTTL = defaults.Recommendation.CacheTTL
	}
	if c.TopEmployers <= 0 {
		c.TopEmployers = defaults.TopEmployers
	}
	return c
}

func withDefaults(deps Dependencies) Dependencies {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopEventPublisher{}
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewBcryptHasher(0)
	}
	if deps.Revocations == nil {
		deps.Revocations = auth.NewRevocationStore(deps.Cache.Session)
	}
	return deps
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if sm.deps.DB == nil || sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: database and repository are required")
	}
	if sm.deps.Tokens == nil {
		return fmt.Errorf("failed to initialize services: token service is required")
	}

	sm.authService = NewAuthService(sm.deps)
	sm.profileService = NewProfileService(sm.deps)
	sm.opportunityService = NewOpportunityService(sm.deps)
	sm.recommendationService = NewRecommendationService(sm.deps, sm.config.Recommendation)
	sm.applicationService = NewApplicationService(sm.deps)
	sm.certificateService = NewCertificateService(sm.deps)
	sm.adminService = NewAdminService(sm.deps, sm.config.TopEmployers)
	sm.exportService = NewExportService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.profileService
}

func (sm *serviceManager) Opportunity() OpportunityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.opportunityService
}

func (sm *serviceManager) Recommendation() RecommendationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.recommendationService
}

func (sm *serviceManager) Application() ApplicationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.applicationService
}

func (sm *serviceManager) Certificate() CertificateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.certificateService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.adminService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown flushes the event publisher. Connections are owned by the
// repository manager and closed there.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Publisher.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}
