package validator

import (
	"time"

	"github.com/kimconnect/internship-service/internal/models"
)

// RegisterRequest is the public sign-up payload. CompanyName is required for employers.
type RegisterRequest struct {
	Email       string          `json:"email" validate:"required,email,max=255"`
	Password    string          `json:"password" validate:"required,min=6,max=72"`
	FirstName   string          `json:"first_name" validate:"required,max=100"`
	LastName    string          `json:"last_name" validate:"required,max=100"`
	Role        models.UserRole `json:"role" validate:"required,registration_role"`
	CompanyName *string         `json:"company_name" validate:"omitempty,max=255"`
	Industry    *string         `json:"industry" validate:"omitempty,max=255"`
	Institution *string         `json:"institution" validate:"omitempty,max=255"`
	Program     *string         `json:"program" validate:"omitempty,max=255"`
	YearOfStudy *int            `json:"year_of_study" validate:"omitempty,year_of_study"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type StudentProfileUpdateRequest struct {
	Institution      *string  `json:"institution" validate:"omitempty,max=255"`
	Program          *string  `json:"program" validate:"omitempty,max=255"`
	YearOfStudy      *int     `json:"year_of_study" validate:"omitempty,year_of_study"`
	Bio              *string  `json:"bio" validate:"omitempty,max=2000"`
	IsProfileVisible *bool    `json:"is_profile_visible"`
	SkillIDs         []uint   `json:"skill_ids" validate:"omitempty,max=50,dive,min=1"`
	SkillNames       []string `json:"skill_names" validate:"omitempty,max=50,dive,skill_name"`
}

// EmployerProfileUpdateRequest carries IsVerified only so that attempts to set
// it can be rejected explicitly.
type EmployerProfileUpdateRequest struct {
	CompanyName  *string `json:"company_name" validate:"omitempty,min=1,max=255"`
	Industry     *string `json:"industry" validate:"omitempty,max=255"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Location     *string `json:"location" validate:"omitempty,max=255"`
	Website      *string `json:"website" validate:"omitempty,url,max=500"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=50"`
	IsVerified   *bool   `json:"is_verified"`
}

type AddSkillsRequest struct {
	SkillIDs []uint `json:"skill_ids" validate:"required,min=1,max=50,dive,min=1"`
}

type OpportunityCreateRequest struct {
	Title           string               `json:"title" validate:"required,min=3,max=255"`
	Description     string               `json:"description" validate:"required,min=10,max=20000"`
	Category        *string              `json:"category" validate:"omitempty,max=100"`
	LocationType    models.LocationType  `json:"location_type" validate:"required,location_type"`
	Location        *string              `json:"location" validate:"omitempty,max=255"`
	Deadline        *time.Time           `json:"deadline"`
	StartDate       *time.Time           `json:"start_date"`
	DurationValue   *int                 `json:"duration_value" validate:"omitempty,min=1,max=520"`
	DurationType    *models.DurationType `json:"duration_type" validate:"omitempty,duration_type"`
	RequiredProgram *string              `json:"required_program" validate:"omitempty,max=255"`
	PreferredYear   *int                 `json:"preferred_year" validate:"omitempty,year_of_study"`
	Stipend         *string              `json:"stipend" validate:"omitempty,max=100"`
	SkillIDs        []uint               `json:"skill_ids" validate:"omitempty,max=50,dive,min=1"`
	SkillNames      []string             `json:"skill_names" validate:"omitempty,max=50,dive,skill_name"`
}

type OpportunityUpdateRequest struct {
	Title           *string              `json:"title" validate:"omitempty,min=3,max=255"`
	Description     *string              `json:"description" validate:"omitempty,min=10,max=20000"`
	Category        *string              `json:"category" validate:"omitempty,max=100"`
	LocationType    *models.LocationType `json:"location_type" validate:"omitempty,location_type"`
	Location        *string              `json:"location" validate:"omitempty,max=255"`
	Deadline        *time.Time           `json:"deadline"`
	StartDate       *time.Time           `json:"start_date"`
	DurationValue   *int                 `json:"duration_value" validate:"omitempty,min=1,max=520"`
	DurationType    *models.DurationType `json:"duration_type" validate:"omitempty,duration_type"`
	RequiredProgram *string              `json:"required_program" validate:"omitempty,max=255"`
	PreferredYear   *int                 `json:"preferred_year" validate:"omitempty,year_of_study"`
	Stipend         *string              `json:"stipend" validate:"omitempty,max=100"`
	IsActive        *bool                `json:"is_active"`
	IsVerified      *bool                `json:"is_verified"`
	SkillIDs        []uint               `json:"skill_ids" validate:"omitempty,max=50,dive,min=1"`
	SkillNames      []string             `json:"skill_names" validate:"omitempty,max=50,dive,skill_name"`
}

type ApplicationCreateRequest struct {
	OpportunityID uint    `json:"opportunity_id" validate:"required,min=1"`
	CoverLetter   *string `json:"cover_letter" validate:"omitempty,max=5000"`
}

// ApplicationUpdateRequest is the wire shape of an application update. The
// service copies only the fields the caller's role may write before touching
// storage.
type ApplicationUpdateRequest struct {
	Status      *models.ApplicationStatus `json:"status" validate:"omitempty,application_status"`
	Feedback    *string                   `json:"feedback" validate:"omitempty,max=2000"`
	CoverLetter *string                   `json:"cover_letter" validate:"omitempty,max=5000"`
}

type CertificateIssueRequest struct {
	ApplicationID    *uint      `json:"application_id" validate:"omitempty,min=1"`
	StudentID        *uint      `json:"student_id" validate:"omitempty,min=1"`
	EmployerID       *uint      `json:"employer_id" validate:"omitempty,min=1"`
	OpportunityTitle *string    `json:"opportunity_title" validate:"omitempty,min=1,max=255"`
	Description      *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,user_status"`
}
