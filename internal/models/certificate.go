package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate names are snapshots taken at issuance and never follow later
// profile edits.
type Certificate struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ApplicationID *uint     `json:"application_id" gorm:"uniqueIndex"`
	StudentID     uint      `json:"student_id" gorm:"not null;index"`
	EmployerID    uint      `json:"employer_id" gorm:"not null;index"`

	OpportunityTitle string  `json:"opportunity_title" gorm:"not null;size:255"`
	StudentName      string  `json:"student_name" gorm:"not null;size:255"`
	EmployerName     string  `json:"employer_name" gorm:"not null;size:255"`
	Description      *string `json:"description" gorm:"type:text"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IssuedAt  time.Time  `json:"issued_at" gorm:"autoCreateTime;index"`
	PDFURL    *string    `json:"pdf_url" gorm:"size:500"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
