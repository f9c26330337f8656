package repositories

import (
	"github.com/kimconnect/internship-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type EmployerFilters struct {
	Verified *bool `json:"verified"`
}

type ApplicationFilters struct {
	Status *models.ApplicationStatus `json:"status"`
}

// ExternalIdentity is a caller vouched for by the external identity provider.
type ExternalIdentity struct {
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
