package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type StudentProfileUpdateRequest = validator.StudentProfileUpdateRequest
type EmployerProfileUpdateRequest = validator.EmployerProfileUpdateRequest
type AddSkillsRequest = validator.AddSkillsRequest
type CreateOpportunityRequest = validator.OpportunityCreateRequest
type UpdateOpportunityRequest = validator.OpportunityUpdateRequest
type CreateApplicationRequest = validator.ApplicationCreateRequest
type UpdateApplicationRequest = validator.ApplicationUpdateRequest
type IssueCertificateRequest = validator.CertificateIssueRequest
type UpdateUserStatusRequest = validator.UpdateUserStatusRequest

// AuthResult is returned by login and registration. Token is empty when no
// session was established.
type AuthResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// Session is a verified caller resolved from a bearer token or cookie.
type Session struct {
	Principal auth.Principal
	User      *models.User
	// TokenID and ExpiresAt are empty for externally issued tokens
	TokenID   string
	ExpiresAt time.Time
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, session *Session) error
	Me(ctx context.Context, principal auth.Principal) (*models.CurrentUser, error)

	// ResolveSession authenticates a token and re-reads the user on every call.
	ResolveSession(ctx context.Context, token string) (*Session, error)

	// EnsureAdmin creates the bootstrap administrator when it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type ProfileService interface {
	GetStudentProfile(ctx context.Context, principal auth.Principal) (*models.StudentProfile, error)
	// UpdateStudentProfile applies req and, when cvURL is non-nil, the uploaded CV.
	UpdateStudentProfile(ctx context.Context, principal auth.Principal, req *StudentProfileUpdateRequest, cvURL *string) (*models.StudentProfile, error)
	AddStudentSkills(ctx context.Context, principal auth.Principal, req *AddSkillsRequest) ([]models.Skill, error)
	RemoveStudentSkill(ctx context.Context, principal auth.Principal, skillID uint) error

	GetEmployerProfile(ctx context.Context, principal auth.Principal) (*models.EmployerProfile, error)
	UpdateEmployerProfile(ctx context.Context, principal auth.Principal, req *EmployerProfileUpdateRequest, logoURL *string) (*models.EmployerProfile, error)

	ListSkills(ctx context.Context) ([]*models.Skill, error)
	// GetOrCreateSkill normalizes name before lookup.
	GetOrCreateSkill(ctx context.Context, name string) (*models.Skill, error)
}

type OpportunityService interface {
	Create(ctx context.Context, principal auth.Principal, req *CreateOpportunityRequest) (*models.Opportunity, error)
	Update(ctx context.Context, principal auth.Principal, id uint, req *UpdateOpportunityRequest) (*models.Opportunity, error)
	Delete(ctx context.Context, principal auth.Principal, id uint) error
	RemoveSkill(ctx context.Context, principal auth.Principal, id, skillID uint) error

	// GetByID and List accept a nil principal for anonymous callers.
	GetByID(ctx context.Context, principal *auth.Principal, id uint) (*models.OpportunityDetail, error)
	List(ctx context.Context, principal *auth.Principal, params models.ListOpportunitiesParams, showAll bool) (*models.PaginatedResponse, error)

	Save(ctx context.Context, principal auth.Principal, id uint) error
	Unsave(ctx context.Context, principal auth.Principal, id uint) error
	ListSaved(ctx context.Context, principal auth.Principal) ([]*models.SavedOpportunity, error)
}

type RecommendationService interface {
	// GetRecommended uses the configured default when limit <= 0.
	GetRecommended(ctx context.Context, principal auth.Principal, limit int) ([]*models.RecommendedOpportunity, error)
}

type ApplicationService interface {
	Create(ctx context.Context, principal auth.Principal, req *CreateApplicationRequest) (*models.Application, error)
	Update(ctx context.Context, principal auth.Principal, id uint, req *UpdateApplicationRequest) (*models.Application, error)
	GetByID(ctx context.Context, principal auth.Principal, id uint) (*models.Application, error)
	ListForStudent(ctx context.Context, principal auth.Principal, status *models.ApplicationStatus) ([]*models.Application, error)
	ListForOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint, status *models.ApplicationStatus) ([]*models.Application, error)
}

type CertificateService interface {
	Issue(ctx context.Context, principal auth.Principal, req *IssueCertificateRequest) (*models.Certificate, error)
	GetByID(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Certificate, error)
	ListForStudent(ctx context.Context, principal auth.Principal) ([]*models.Certificate, error)
	ListIssued(ctx context.Context, principal auth.Principal) ([]*models.Certificate, error)
}

type AdminService interface {
	Stats(ctx context.Context) (*models.PlatformStats, error)
	ListEmployers(ctx context.Context, params models.ListEmployersParams) ([]*models.EmployerProfile, error)
	VerifyEmployer(ctx context.Context, principal auth.Principal, employerID uint) (*models.EmployerProfile, error)
	VerifyOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint) (*models.Opportunity, error)
	UpdateUserStatus(ctx context.Context, principal auth.Principal, userID uint, req *UpdateUserStatusRequest) (*models.User, error)
}

type ExportService interface {
	// ExportPlatformReport writes an XLSX workbook to w.
	ExportPlatformReport(ctx context.Context, w io.Writer) error
}

// ServiceManager manages all services and their lifecycle
type ServiceManager interface {
	Auth() AuthService
	Profile() ProfileService
	Opportunity() OpportunityService
	Recommendation() RecommendationService
	Application() ApplicationService
	Certificate() CertificateService
	Admin() AdminService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
