package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type OpportunityPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager

	// Bound to a transaction; reads skip the cache
	transactional bool
}

func NewOpportunityPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.OpportunityRepository {
	return &OpportunityPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (o *OpportunityPostgreSQL) Create(ctx context.Context, tx *gorm.DB, opportunity *models.Opportunity) error {
	return o.getDB(tx).WithContext(ctx).Omit("Employer").Create(opportunity).Error
}

// GetByID reads through the cache only outside transactions.
func (o *OpportunityPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Opportunity, error) {
	if tx != nil || o.transactional {
		return o.load(ctx, tx, id, false)
	}

	var opportunity models.Opportunity
	err := o.cacheManager.Opportunity.CacheOrExecute(ctx, cache.OpportunityKey(id), &opportunity, cache.OpportunityCacheConfig.TTL, func() (interface{}, error) {
		return o.load(ctx, nil, id, false)
	})
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (o *OpportunityPostgreSQL) GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.Opportunity, error) {
	return o.load(ctx, tx, id, true)
}

func (o *OpportunityPostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := o.getDB(tx).WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateOpportunityCache(ctx, o.cacheManager, id)
	return nil
}

func (o *OpportunityPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	err := o.getDB(tx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("opportunity_id = ?", id).Delete(&models.OpportunitySkill{}).Error; err != nil {
			return fmt.Errorf("failed to delete opportunity skills: %w", err)
		}
		if err := db.Where("opportunity_id = ?", id).Delete(&models.SavedOpportunity{}).Error; err != nil {
			return fmt.Errorf("failed to delete saved opportunities: %w", err)
		}
		res := db.Delete(&models.Opportunity{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateOpportunityCache(ctx, o.cacheManager, id)
	return nil
}

func (o *OpportunityPostgreSQL) List(ctx context.Context, tx *gorm.DB, params models.ListOpportunitiesParams) ([]*models.Opportunity, int64, error) {
	db := o.getDB(tx)

	var total int64
	if err := o.applyFilters(ctx, db, params).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := o.applyFilters(ctx, db, params).
		Preload("Employer").
		Order("created_at DESC, id DESC")
	if params.Size > 0 {
		query = query.Offset(params.Page * params.Size).Limit(params.Size)
	}

	var opportunities []*models.Opportunity
	if err := query.Find(&opportunities).Error; err != nil {
		return nil, 0, err
	}

	if err := o.attachSkills(ctx, db, opportunities); err != nil {
		return nil, 0, err
	}
	return opportunities, total, nil
}

func (o *OpportunityPostgreSQL) ListPublic(ctx context.Context, tx *gorm.DB) ([]*models.Opportunity, error) {
	opportunities, _, err := o.List(ctx, tx, models.ListOpportunitiesParams{PublicOnly: true})
	return opportunities, err
}

func (o *OpportunityPostgreSQL) AddSkills(ctx context.Context, tx *gorm.DB, opportunityID uint, skillIDs []uint) error {
	ids := UniqueIDs(skillIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.OpportunitySkill, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.OpportunitySkill{OpportunityID: opportunityID, SkillID: id})
	}
	if err := o.helpers.InsertIgnoringDuplicates(ctx, tx, &links); err != nil {
		return err
	}
	cache.InvalidateOpportunityCache(ctx, o.cacheManager, opportunityID)
	return nil
}

func (o *OpportunityPostgreSQL) RemoveSkill(ctx context.Context, tx *gorm.DB, opportunityID, skillID uint) error {
	err := o.getDB(tx).WithContext(ctx).
		Where("opportunity_id = ? AND skill_id = ?", opportunityID, skillID).
		Delete(&models.OpportunitySkill{}).Error
	if err != nil {
		return err
	}
	cache.InvalidateOpportunityCache(ctx, o.cacheManager, opportunityID)
	return nil
}

func (o *OpportunityPostgreSQL) load(ctx context.Context, tx *gorm.DB, id uint, unscoped bool) (*models.Opportunity, error) {
	db := o.getDB(tx)
	query := db.WithContext(ctx).Preload("Employer")
	if unscoped {
		query = query.Unscoped()
	}

	var opportunity models.Opportunity
	if err := query.First(&opportunity, id).Error; err != nil {
		return nil, err
	}
	if err := o.attachSkills(ctx, db, []*models.Opportunity{&opportunity}); err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (o *OpportunityPostgreSQL) attachSkills(ctx context.Context, db *gorm.DB, opportunities []*models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}
	ids := make([]uint, len(opportunities))
	for i, opp := range opportunities {
		ids[i] = opp.ID
	}

	skills, err := o.helpers.SkillsByOwner(ctx, db, "opportunity_skills", "opportunity_id", ids)
	if err != nil {
		return fmt.Errorf("failed to load opportunity skills: %w", err)
	}
	for _, opp := range opportunities {
		opp.Skills = skills[opp.ID]
		if opp.Skills == nil {
			opp.Skills = []models.Skill{}
		}
	}
	return nil
}

// applyFilters builds the conjunctive filter set. A fresh statement is built
// per call so that Count and Find do not share clauses.
func (o *OpportunityPostgreSQL) applyFilters(ctx context.Context, db *gorm.DB, params models.ListOpportunitiesParams) *gorm.DB {
	query := db.WithContext(ctx).Model(&models.Opportunity{})

	if params.PublicOnly {
		query = query.Where("is_active = ? AND is_verified = ?", true, true)
	}
	if params.EmployerID != nil {
		query = query.Where("employer_id = ?", *params.EmployerID)
	}
	if category := strings.TrimSpace(params.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if params.LocationType != "" {
		query = query.Where("location_type = ?", params.LocationType)
	}

	// Every requested skill must be attached
	if ids := UniqueIDs(params.SkillIDs); len(ids) > 0 {
		matching := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.OpportunitySkill{}).
			Select("opportunity_id").
			Where("skill_id IN ?", ids).
			Group("opportunity_id").
			Having("COUNT(DISTINCT skill_id) = ?", len(ids))
		query = query.Where("id IN (?)", matching)
	}

	if search := strings.ToLower(strings.TrimSpace(params.Search)); search != "" {
		like := "%" + search + "%"
		companies := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.EmployerProfile{}).
			Select("id").
			Where("LOWER(company_name) LIKE ?", like)
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR employer_id IN (?))", like, like, companies)
	}

	return query
}

func (o *OpportunityPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return o.db
}
