package models

import (
	"time"

	"gorm.io/gorm"
)

type LocationType string

const (
	LocationRemote   LocationType = "remote"
	LocationInPerson LocationType = "in-person"
	LocationHybrid   LocationType = "hybrid"
)

type DurationType string

const (
	DurationDays    DurationType = "days"
	DurationWeeks   DurationType = "weeks"
	DurationMonths  DurationType = "months"
	DurationOngoing DurationType = "ongoing"
)

type Opportunity struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	EmployerID uint `json:"employer_id" gorm:"not null;index"`

	Title        string        `json:"title" gorm:"not null;size:255"`
	Description  string        `json:"description" gorm:"type:text;not null"`
	Category     *string       `json:"category" gorm:"size:100;index"`
	LocationType LocationType  `json:"location_type" gorm:"not null;size:20;index"`
	Location     *string       `json:"location" gorm:"size:255"`
	Deadline     *time.Time    `json:"deadline"`
	StartDate    *time.Time    `json:"start_date"`
	Duration     *int          `json:"duration_value" gorm:"column:duration_value"`
	DurationType *DurationType `json:"duration_type" gorm:"size:20"`
	Stipend      *string       `json:"stipend" gorm:"size:100"`

	// Matching hints for the recommender
	RequiredProgram *string `json:"required_program" gorm:"size:255"`
	PreferredYear   *int    `json:"preferred_year"`

	IsActive   bool `json:"is_active" gorm:"not null;index"`
	IsVerified bool `json:"is_verified" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Employer *EmployerProfile `json:"employer,omitempty" gorm:"foreignKey:EmployerID"`
	Skills   []Skill          `json:"skills" gorm:"-"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// IsPublic reports whether students and anonymous callers may see the listing.
func (o *Opportunity) IsPublic() bool {
	return o.IsActive && o.IsVerified
}

// IsClosed reports whether the application deadline has passed.
func (o *Opportunity) IsClosed(now time.Time) bool {
	return o.Deadline != nil && now.After(*o.Deadline)
}

func (o *Opportunity) SkillIDs() []uint {
	ids := make([]uint, 0, len(o.Skills))
	for _, s := range o.Skills {
		ids = append(ids, s.ID)
	}
	return ids
}

type OpportunitySkill struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OpportunityID uint      `json:"opportunity_id" gorm:"not null;uniqueIndex:idx_opportunity_skill"`
	SkillID       uint      `json:"skill_id" gorm:"not null;uniqueIndex:idx_opportunity_skill;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (OpportunitySkill) TableName() string {
	return "opportunity_skills"
}

type SavedOpportunity struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	StudentID     uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_saved_student_opportunity"`
	OpportunityID uint      `json:"opportunity_id" gorm:"not null;uniqueIndex:idx_saved_student_opportunity;index"`
	SavedAt       time.Time `json:"saved_at" gorm:"autoCreateTime"`

	// Relations
	Opportunity *Opportunity `json:"opportunity,omitempty" gorm:"foreignKey:OpportunityID"`
}

func (SavedOpportunity) TableName() string {
	return "saved_opportunities"
}
