package repositories

import "context"

// Repository aggregates the per-entity repositories
type Repository interface {
	// Identity domain
	User() UserRepository
	Identity() IdentityRepository

	// Profile domain
	StudentProfile() StudentProfileRepository
	EmployerProfile() EmployerProfileRepository
	Skill() SkillRepository

	// Marketplace domain
	Opportunity() OpportunityRepository
	SavedOpportunity() SavedOpportunityRepository
	Application() ApplicationRepository
	Certificate() CertificateRepository

	// Admin reporting
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
