package models

import (
	"time"
)

// ===== PAGINATION & FILTERING =====

// ListOpportunitiesParams filters are conjunctive. SkillIDs requires every
// listed skill to be attached to the opportunity.
type ListOpportunitiesParams struct {
	Page         int          `json:"page" validate:"min=0"`
	Size         int          `json:"size" validate:"min=1,max=100"`
	Category     string       `json:"category"`
	LocationType LocationType `json:"location_type"`
	SkillIDs     []uint       `json:"skill_ids"`
	Search       string       `json:"search"`

	// Visibility scope, resolved by the service from the principal
	EmployerID *uint `json:"-"`
	PublicOnly bool  `json:"-"`
}

type ListEmployersParams struct {
	Verified *bool `json:"verified"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse builds the page envelope for a slice of n elements.
func NewPaginatedResponse(content interface{}, n int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page == 0,
		Last:             page >= totalPages-1,
		NumberOfElements: n,
		Empty:            n == 0,
	}
}

// ===== VIEWS =====

// OpportunityDetail augments a listing with the calling student's relationship to it.
type OpportunityDetail struct {
	*Opportunity
	IsSaved           bool               `json:"is_saved"`
	HasApplied        bool               `json:"has_applied"`
	ApplicationStatus *ApplicationStatus `json:"application_status"`
}

type RecommendedOpportunity struct {
	*Opportunity
	Score int `json:"score"`
}

type CurrentUser struct {
	User            *User            `json:"user"`
	StudentProfile  *StudentProfile  `json:"student_profile,omitempty"`
	EmployerProfile *EmployerProfile `json:"employer_profile,omitempty"`
}

// ===== STATISTICS =====

type PlatformStats struct {
	UsersByRole           map[UserRole]int64          `json:"users_by_role"`
	PendingEmployers      int64                       `json:"pending_employers"`
	TotalOpportunities    int64                       `json:"total_opportunities"`
	ActiveOpportunities   int64                       `json:"active_opportunities"`
	VerifiedOpportunities int64                       `json:"verified_opportunities"`
	ApplicationsByStatus  map[ApplicationStatus]int64 `json:"applications_by_status"`
	TotalCertificates     int64                       `json:"total_certificates"`
	TopEmployers          []EmployerActivity          `json:"top_employers"`
	GeneratedAt           time.Time                   `json:"generated_at"`
}

type EmployerActivity struct {
	EmployerID       uint   `json:"employer_id"`
	CompanyName      string `json:"company_name"`
	OpportunityCount int64  `json:"opportunity_count"`
}
