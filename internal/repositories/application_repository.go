package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	// Create fails with a duplicate error when the pair already has an application.
	Create(ctx context.Context, tx *gorm.DB, application *models.Application) error
	// GetByID loads student (with user) and opportunity (including deleted) with employer.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Application, error)
	GetByStudentAndOpportunity(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) (*models.Application, error)

	// TransitionStatus writes to and updates only while the row is still in
	// from. It reports whether the row was changed.
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ApplicationStatus, updates map[string]interface{}) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	// MarkCompleted moves an accepted application to completed and links the certificate.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, certificateID uuid.UUID, updates map[string]interface{}) (bool, error)

	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters ApplicationFilters) ([]*models.Application, error)
	ListByOpportunity(ctx context.Context, tx *gorm.DB, opportunityID uint, filters ApplicationFilters) ([]*models.Application, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Application, error)
}

type CertificateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Certificate, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Certificate, error)
	ListByEmployer(ctx context.Context, tx *gorm.DB, employerID uint) ([]*models.Certificate, error)
}
