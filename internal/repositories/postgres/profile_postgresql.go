package postgres

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type StudentProfilePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewStudentProfilePostgreSQL(db *gorm.DB) repositories.StudentProfileRepository {
	return &StudentProfilePostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (s *StudentProfilePostgreSQL) Create(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error {
	return s.getDB(tx).WithContext(ctx).Create(profile).Error
}

func (s *StudentProfilePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := s.getDB(tx).WithContext(ctx).Preload("User").First(&profile, id).Error; err != nil {
		return nil, err
	}
	return s.withSkills(ctx, tx, &profile)
}

func (s *StudentProfilePostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := s.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return s.withSkills(ctx, tx, &profile)
}

func (s *StudentProfilePostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := s.getDB(tx).WithContext(ctx).
		Model(&models.StudentProfile{}).
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

func (s *StudentProfilePostgreSQL) GetSkills(ctx context.Context, tx *gorm.DB, profileID uint) ([]models.Skill, error) {
	skills, err := s.helpers.SkillsByOwner(ctx, tx, "student_skills", "student_profile_id", []uint{profileID})
	if err != nil {
		return nil, err
	}
	if skills[profileID] == nil {
		return []models.Skill{}, nil
	}
	return skills[profileID], nil
}

func (s *StudentProfilePostgreSQL) AddSkills(ctx context.Context, tx *gorm.DB, profileID uint, skillIDs []uint) error {
	ids := UniqueIDs(skillIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.StudentSkill, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.StudentSkill{StudentProfileID: profileID, SkillID: id})
	}
	return s.helpers.InsertIgnoringDuplicates(ctx, tx, &links)
}

func (s *StudentProfilePostgreSQL) RemoveSkill(ctx context.Context, tx *gorm.DB, profileID, skillID uint) error {
	return s.getDB(tx).WithContext(ctx).
		Where("student_profile_id = ? AND skill_id = ?", profileID, skillID).
		Delete(&models.StudentSkill{}).Error
}

func (s *StudentProfilePostgreSQL) withSkills(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) (*models.StudentProfile, error) {
	skills, err := s.GetSkills(ctx, tx, profile.ID)
	if err != nil {
		return nil, err
	}
	profile.Skills = skills
	return profile, nil
}

func (s *StudentProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

type EmployerProfilePostgreSQL struct {
	db *gorm.DB
}

func NewEmployerProfilePostgreSQL(db *gorm.DB) repositories.EmployerProfileRepository {
	return &EmployerProfilePostgreSQL{db: db}
}

func (e *EmployerProfilePostgreSQL) Create(ctx context.Context, tx *gorm.DB, profile *models.EmployerProfile) error {
	return e.getDB(tx).WithContext(ctx).Create(profile).Error
}

func (e *EmployerProfilePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EmployerProfile, error) {
	var profile models.EmployerProfile
	if err := e.getDB(tx).WithContext(ctx).Preload("User").First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (e *EmployerProfilePostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*models.EmployerProfile, error) {
	var profile models.EmployerProfile
	if err := e.getDB(tx).WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (e *EmployerProfilePostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := e.getDB(tx).WithContext(ctx).
		Model(&models.EmployerProfile{}).
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

// MarkVerified is idempotent: verifying a verified employer succeeds.
func (e *EmployerProfilePostgreSQL) MarkVerified(ctx context.Context, tx *gorm.DB, id uint) error {
	var profile models.EmployerProfile
	db := e.getDB(tx).WithContext(ctx)
	if err := db.Select("id").First(&profile, id).Error; err != nil {
		return err
	}
	return db.Model(&models.EmployerProfile{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

func (e *EmployerProfilePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EmployerFilters) ([]*models.EmployerProfile, error) {
	query := e.getDB(tx).WithContext(ctx).Preload("User")
	if filters.Verified != nil {
		query = query.Where("is_verified = ?", *filters.Verified)
	}

	var profiles []*models.EmployerProfile
	if err := query.Order("created_at DESC, id DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (e *EmployerProfilePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
