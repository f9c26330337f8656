package services

import (
	"errors"
	"fmt"

	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/validator"
)

// Error kinds. Handlers branch on these with errors.Is.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrAccountNotActive   = errors.New("account not active")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrInternal           = errors.New("internal error")
)

// Domain errors
var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("profile %w", ErrNotFound)
	ErrEmployerNotFound    = fmt.Errorf("employer %w", ErrNotFound)
	ErrOpportunityNotFound = fmt.Errorf("opportunity %w", ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)
	ErrCertificateNotFound = fmt.Errorf("certificate %w", ErrNotFound)
	ErrSkillNotFound       = fmt.Errorf("skill %w", ErrNotFound)

	ErrEmailTaken               = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrApplicationExists        = fmt.Errorf("application already exists for this opportunity: %w", ErrConflict)
	ErrCertificateAlreadyIssued = fmt.Errorf("certificate already issued for this application: %w", ErrConflict)
	ErrApplicationChanged       = fmt.Errorf("application was modified concurrently: %w", ErrConflict)

	ErrSessionRevoked = fmt.Errorf("session revoked: %w", ErrUnauthorized)
)

// ValidationErrors is returned as-is from request validation.
type ValidationErrors = validator.ValidationErrors

// PermissionError reports a failed role or ownership check.
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// BusinessRuleError reports a request that is well-formed but not allowed in
// the current state of the data.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

// AccountNotActiveError carries the status that blocked authentication.
type AccountNotActiveError struct {
	Status models.UserStatus
}

func (e *AccountNotActiveError) Error() string {
	return fmt.Sprintf("account is %s", e.Status)
}

func (e *AccountNotActiveError) Unwrap() error {
	return ErrAccountNotActive
}

// TransitionError reports an application status change the state machine forbids.
type TransitionError struct {
	From models.ApplicationStatus
	To   models.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move application from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
