package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type dashboardRepository struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DashboardRepository {
	return &dashboardRepository{db: db, cacheManager: cacheManager}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

type groupCount struct {
	GroupKey string
	Total    int64
}

// GetPlatformStats is cached for StatsCacheConfig.TTL outside transactions.
func (r *dashboardRepository) GetPlatformStats(ctx context.Context, tx *gorm.DB, topEmployers int) (*models.PlatformStats, error) {
	if tx != nil {
		return r.collectStats(ctx, tx, topEmployers)
	}

	var stats models.PlatformStats
	err := r.cacheManager.Stats.CacheOrExecute(ctx, cache.StatsKey(), &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return r.collectStats(ctx, nil, topEmployers)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *dashboardRepository) collectStats(ctx context.Context, tx *gorm.DB, topEmployers int) (*models.PlatformStats, error) {
	db := r.getDB(tx).WithContext(ctx)
	stats := &models.PlatformStats{
		UsersByRole:          make(map[models.UserRole]int64),
		ApplicationsByStatus: make(map[models.ApplicationStatus]int64),
		TopEmployers:         []models.EmployerActivity{},
		GeneratedAt:          time.Now().UTC(),
	}

	// ===== USERS =====

	var roles []groupCount
	if err := db.Model(&models.User{}).
		Select("role AS group_key, COUNT(*) AS total").
		Group("role").
		Scan(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	for _, row := range roles {
		stats.UsersByRole[models.UserRole(row.GroupKey)] = row.Total
	}

	if err := db.Model(&models.User{}).
		Where("role = ? AND status = ?", models.RoleEmployer, models.UserStatusPending).
		Count(&stats.PendingEmployers).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending employers: %w", err)
	}

	// ===== OPPORTUNITIES =====

	if err := db.Model(&models.Opportunity{}).Count(&stats.TotalOpportunities).Error; err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}
	if err := db.Model(&models.Opportunity{}).
		Where("is_active = ?", true).
		Count(&stats.ActiveOpportunities).Error; err != nil {
		return nil, fmt.Errorf("failed to count active opportunities: %w", err)
	}
	if err := db.Model(&models.Opportunity{}).
		Where("is_verified = ?", true).
		Count(&stats.VerifiedOpportunities).Error; err != nil {
		return nil, fmt.Errorf("failed to count verified opportunities: %w", err)
	}

	// ===== APPLICATIONS & CERTIFICATES =====

	var statuses []groupCount
	if err := db.Model(&models.Application{}).
		Select("status AS group_key, COUNT(*) AS total").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	for _, row := range statuses {
		stats.ApplicationsByStatus[models.ApplicationStatus(row.GroupKey)] = row.Total
	}

	if err := db.Model(&models.Certificate{}).Count(&stats.TotalCertificates).Error; err != nil {
		return nil, fmt.Errorf("failed to count certificates: %w", err)
	}

	// ===== TOP EMPLOYERS =====

	if topEmployers > 0 {
		if err := db.Table("opportunities").
			Select("employer_profiles.id AS employer_id, employer_profiles.company_name, COUNT(opportunities.id) AS opportunity_count").
			Joins("JOIN employer_profiles ON employer_profiles.id = opportunities.employer_id").
			Where("opportunities.deleted_at IS NULL").
			Group("employer_profiles.id, employer_profiles.company_name").
			Order("opportunity_count DESC, employer_profiles.id ASC").
			Limit(topEmployers).
			Scan(&stats.TopEmployers).Error; err != nil {
			return nil, fmt.Errorf("failed to get top employers: %w", err)
		}
	}

	return stats, nil
}
