package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type ApplicationPostgreSQL struct {
	db *gorm.DB
}

func NewApplicationPostgreSQL(db *gorm.DB) repositories.ApplicationRepository {
	return &ApplicationPostgreSQL{db: db}
}

func (a *ApplicationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, application *models.Application) error {
	return a.getDB(tx).WithContext(ctx).
		Omit("Student", "Opportunity").
		Create(application).Error
}

func (a *ApplicationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Application, error) {
	var application models.Application
	if err := a.withRelations(ctx, tx).First(&application, id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

func (a *ApplicationPostgreSQL) GetByStudentAndOpportunity(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) (*models.Application, error) {
	var application models.Application
	err := a.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND opportunity_id = ?", studentID, opportunityID).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

// TransitionStatus is a compare-and-set on the status column; a concurrent
// writer that moved the row first makes this call report false.
func (a *ApplicationPostgreSQL) TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ApplicationStatus, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	res := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (a *ApplicationPostgreSQL) UpdateFields(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *ApplicationPostgreSQL) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, certificateID uuid.UUID, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{
		"status":         models.ApplicationCompleted,
		"certificate_id": certificateID,
	}
	for k, v := range updates {
		values[k] = v
	}

	res := a.getDB(tx).WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ? AND certificate_id IS NULL", id, models.ApplicationAccepted).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (a *ApplicationPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint, filters repositories.ApplicationFilters) ([]*models.Application, error) {
	query := a.withRelations(ctx, tx).Where("student_id = ?", studentID)
	return a.list(query, filters)
}

func (a *ApplicationPostgreSQL) ListByOpportunity(ctx context.Context, tx *gorm.DB, opportunityID uint, filters repositories.ApplicationFilters) ([]*models.Application, error) {
	query := a.withRelations(ctx, tx).Where("opportunity_id = ?", opportunityID)
	return a.list(query, filters)
}

func (a *ApplicationPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Application, error) {
	return a.list(a.withRelations(ctx, tx), repositories.ApplicationFilters{})
}

func (a *ApplicationPostgreSQL) list(query *gorm.DB, filters repositories.ApplicationFilters) ([]*models.Application, error) {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var applications []*models.Application
	if err := query.Order("applied_at DESC, id DESC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// withRelations preloads the student with user and the opportunity with its
// employer. Deleted opportunities are included since applications outlive them.
func (a *ApplicationPostgreSQL) withRelations(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return a.getDB(tx).WithContext(ctx).
		Preload("Student.User").
		Preload("Opportunity", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Opportunity.Employer")
}

func (a *ApplicationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
