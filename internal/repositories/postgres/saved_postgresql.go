package postgres

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type SavedOpportunityPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSavedOpportunityPostgreSQL(db *gorm.DB) repositories.SavedOpportunityRepository {
	return &SavedOpportunityPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (s *SavedOpportunityPostgreSQL) Save(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) error {
	saved := &models.SavedOpportunity{StudentID: studentID, OpportunityID: opportunityID}
	return s.helpers.InsertIgnoringDuplicates(ctx, tx, saved)
}

func (s *SavedOpportunityPostgreSQL) Unsave(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) error {
	return s.getDB(tx).WithContext(ctx).
		Where("student_id = ? AND opportunity_id = ?", studentID, opportunityID).
		Delete(&models.SavedOpportunity{}).Error
}

func (s *SavedOpportunityPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, studentID, opportunityID uint) (bool, error) {
	var count int64
	err := s.getDB(tx).WithContext(ctx).
		Model(&models.SavedOpportunity{}).
		Where("student_id = ? AND opportunity_id = ?", studentID, opportunityID).
		Count(&count).Error
	return count > 0, err
}

// ListByStudent returns bookmarks newest first. Bookmarks of deleted listings
// are removed on delete, so every row carries its opportunity.
func (s *SavedOpportunityPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.SavedOpportunity, error) {
	db := s.getDB(tx)

	var saved []*models.SavedOpportunity
	err := db.WithContext(ctx).
		Preload("Opportunity").
		Preload("Opportunity.Employer").
		Where("student_id = ?", studentID).
		Order("saved_at DESC, id DESC").
		Find(&saved).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(saved))
	for _, item := range saved {
		if item.Opportunity != nil {
			ids = append(ids, item.OpportunityID)
		}
	}
	skills, err := s.helpers.SkillsByOwner(ctx, db, "opportunity_skills", "opportunity_id", ids)
	if err != nil {
		return nil, err
	}
	for _, item := range saved {
		if item.Opportunity == nil {
			continue
		}
		item.Opportunity.Skills = skills[item.OpportunityID]
		if item.Opportunity.Skills == nil {
			item.Opportunity.Skills = []models.Skill{}
		}
	}
	return saved, nil
}

func (s *SavedOpportunityPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
