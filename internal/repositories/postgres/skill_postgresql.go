package postgres

import (
	"context"
	"fmt"

	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager

	transactional bool
}

func NewSkillPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SkillRepository {
	return &SkillPostgreSQL{db: db, cacheManager: cacheManager}
}

func (s *SkillPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Skill, error) {
	fetch := func() (interface{}, error) {
		var skills []*models.Skill
		if err := s.getDB(tx).WithContext(ctx).Order("name ASC").Find(&skills).Error; err != nil {
			return nil, fmt.Errorf("failed to list skills: %w", err)
		}
		return skills, nil
	}

	if tx != nil || s.transactional {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.([]*models.Skill), nil
	}

	var skills []*models.Skill
	err := s.cacheManager.Skill.CacheOrExecute(ctx, cache.SkillListKey(), &skills, cache.SkillCacheConfig.TTL, fetch)
	return skills, err
}

func (s *SkillPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Skill, error) {
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return []*models.Skill{}, nil
	}
	var skills []*models.Skill
	err := s.getDB(tx).WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&skills).Error
	return skills, err
}

// FindOrCreate tolerates a concurrent insert of the same name by re-reading
// after a conflicting insert.
func (s *SkillPostgreSQL) FindOrCreate(ctx context.Context, tx *gorm.DB, name string) (*models.Skill, error) {
	db := s.getDB(tx).WithContext(ctx)

	var skill models.Skill
	err := db.Where("name = ?", name).First(&skill).Error
	if err == nil {
		return &skill, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	skill = models.Skill{Name: name}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&skill)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		skill = models.Skill{}
		if err := db.Where("name = ?", name).First(&skill).Error; err != nil {
			return nil, err
		}
		return &skill, nil
	}

	cache.InvalidateSkillCache(ctx, s.cacheManager)
	return &skill, nil
}

func (s *SkillPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
