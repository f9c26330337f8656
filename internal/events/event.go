package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "internship-service"
	EventVersion = "1.0"
)

// Event types published after a successful commit.
const (
	UserRegistered           = "user.registered"
	EmployerVerified         = "employer.verified"
	OpportunityCreated       = "opportunity.created"
	OpportunityVerified      = "opportunity.verified"
	OpportunityDeleted       = "opportunity.deleted"
	ApplicationSubmitted     = "application.submitted"
	ApplicationStatusChanged = "application.status_changed"
	CertificateIssued        = "certificate.issued"
)

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Payloads

type UserRegisteredData struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type EmployerVerifiedData struct {
	EmployerID uint `json:"employer_id"`
	UserID     uint `json:"user_id"`
}

type OpportunityData struct {
	OpportunityID uint `json:"opportunity_id"`
	EmployerID    uint `json:"employer_id"`
	ActorID       uint `json:"actor_id"`
}

type ApplicationData struct {
	ApplicationID uint   `json:"application_id"`
	OpportunityID uint   `json:"opportunity_id"`
	StudentID     uint   `json:"student_id"`
	FromStatus    string `json:"from_status,omitempty"`
	ToStatus      string `json:"to_status"`
	ActorID       uint   `json:"actor_id"`
}

type CertificateIssuedData struct {
	CertificateID string `json:"certificate_id"`
	ApplicationID *uint  `json:"application_id,omitempty"`
	StudentID     uint   `json:"student_id"`
	EmployerID    uint   `json:"employer_id"`
}
