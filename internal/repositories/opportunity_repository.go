package repositories

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
)

type OpportunityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, opportunity *models.Opportunity) error
	// GetByID excludes deleted listings and loads employer and skills.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Opportunity, error)
	// GetByIDUnscoped includes deleted listings, for audit reads.
	GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.Opportunity, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	// Delete soft-deletes the listing and hard-deletes its skills and bookmarks.
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, params models.ListOpportunitiesParams) ([]*models.Opportunity, int64, error)
	// ListPublic returns every active and verified listing with skills loaded.
	ListPublic(ctx context.Context, tx *gorm.DB) ([]*models.Opportunity, error)

	AddSkills(ctx context.Context, tx *gorm.DB, opportunityID uint, skillIDs []uint) error
	RemoveSkill(ctx context.Context, tx *gorm.DB, opportunityID, skillID uint) error
}

type SavedOpportunityRepository interface {
	// Save is a no-op when the bookmark exists.
	Save(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) error
	Unsave(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) error
	Exists(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) (bool, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.SavedOpportunity, error)
}
