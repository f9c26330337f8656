package repositories

import (
	"context"

	"github.com/kimconnect/internship-service/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)

	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.UserStatus) error
	// ActivateIfPending flips pending to active and reports whether it did.
	ActivateIfPending(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	List(ctx context.Context, tx *gorm.DB) ([]*models.User, error)
}

// IdentityRepository resolves tokens minted by an external identity provider.
type IdentityRepository interface {
	Enabled() bool
	ResolveToken(ctx context.Context, token string) (*ExternalIdentity, error)
}
