package repositories

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
)

type StudentProfileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.StudentProfile, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error

	// Skill associations. AddSkills ignores ids already attached.
	GetSkills(ctx context.Context, tx *gorm.DB, profileID uint) ([]models.Skill, error)
	AddSkills(ctx context.Context, tx *gorm.DB, profileID uint, skillIDs []uint) error
	RemoveSkill(ctx context.Context, tx *gorm.DB, profileID, skillID uint) error
}

type EmployerProfileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, profile *models.EmployerProfile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EmployerProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.EmployerProfile, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error
	MarkVerified(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters EmployerFilters) ([]*models.EmployerProfile, error)
}

type SkillRepository interface {
	List(ctx context.Context, tx *gorm.DB) ([]*models.Skill, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Skill, error)
	// FindOrCreate expects an already normalized name.
	FindOrCreate(ctx context.Context, tx *gorm.DB, name string) (*models.Skill, error)
}
