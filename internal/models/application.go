package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
	ApplicationCompleted ApplicationStatus = "completed"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn, ApplicationCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave the status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationRejected || s == ApplicationWithdrawn || s == ApplicationCompleted
}

type Application struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	StudentID     uint              `json:"student_id" gorm:"not null;uniqueIndex:idx_application_student_opportunity"`
	OpportunityID uint              `json:"opportunity_id" gorm:"not null;uniqueIndex:idx_application_student_opportunity;index"`
	Status        ApplicationStatus `json:"status" gorm:"not null;size:20;index"`
	CoverLetter   *string           `json:"cover_letter" gorm:"type:text"`
	Feedback      *string           `json:"feedback" gorm:"type:text"`

	// Set together with status=completed when a certificate is issued
	CertificateID *uuid.UUID `json:"certificate_id" gorm:"type:uuid;uniqueIndex"`
	CompletedAt   *time.Time `json:"completed_at"`

	StatusHistory datatypes.JSON `json:"status_history"`

	AppliedAt time.Time `json:"applied_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student     *StudentProfile `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Opportunity *Opportunity    `json:"opportunity,omitempty" gorm:"foreignKey:OpportunityID"`
}

func (Application) TableName() string {
	return "applications"
}

// StatusChange is one entry of an application's status history.
type StatusChange struct {
	From      ApplicationStatus `json:"from,omitempty"`
	To        ApplicationStatus `json:"to"`
	ActorRole UserRole          `json:"actor_role"`
	ActorID   uint              `json:"actor_id"`
	At        time.Time         `json:"at"`
}

// History decodes the status history. A missing history yields an empty slice.
func (a *Application) History() ([]StatusChange, error) {
	var changes []StatusChange
	if len(a.StatusHistory) == 0 {
		return changes, nil
	}
	if err := json.Unmarshal(a.StatusHistory, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// AppendStatusChange returns the history with change appended. The
// application itself is left unchanged.
func (a *Application) AppendStatusChange(change StatusChange) (datatypes.JSON, error) {
	changes, err := a.History()
	if err != nil {
		return nil, err
	}
	changes = append(changes, change)
	data, err := json.Marshal(changes)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
