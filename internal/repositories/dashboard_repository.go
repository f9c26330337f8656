package repositories

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
)

// DashboardRepository serves aggregate counts for administrators.
type DashboardRepository interface {
	GetPlatformStats(ctx context.Context, tx *gorm.DB, topEmployers int) (*models.PlatformStats, error)
}
