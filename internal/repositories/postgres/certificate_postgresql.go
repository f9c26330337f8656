package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

type CertificatePostgreSQL struct {
	db *gorm.DB
}

func NewCertificatePostgreSQL(db *gorm.DB) repositories.CertificateRepository {
	return &CertificatePostgreSQL{db: db}
}

func (c *CertificatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	return c.getDB(tx).WithContext(ctx).Create(certificate).Error
}

func (c *CertificatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := c.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&certificate).Error; err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Certificate, error) {
	return c.listWhere(ctx, tx, "student_id = ?", studentID)
}

func (c *CertificatePostgreSQL) ListByEmployer(ctx context.Context, tx *gorm.DB, employerID uint) ([]*models.Certificate, error) {
	return c.listWhere(ctx, tx, "employer_id = ?", employerID)
}

func (c *CertificatePostgreSQL) listWhere(ctx context.Context, tx *gorm.DB, condition string, arg uint) ([]*models.Certificate, error) {
	var certificates []*models.Certificate
	err := c.getDB(tx).WithContext(ctx).
		Where(condition, arg).
		Order("issued_at DESC").
		Find(&certificates).Error
	if err != nil {
		return nil, err
	}
	return certificates, nil
}

func (c *CertificatePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}
