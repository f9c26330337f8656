package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

type certificateService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher events.EventPublisher
	now       func() time.Time
}

func NewCertificateService(deps Dependencies) CertificateService {
	deps = withDefaults(deps)
	return &certificateService{
		repo:      deps.Repo,
		db:        deps.DB,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		now:       time.Now,
	}
}

// ===== ISSUANCE =====

// Issue creates a certificate. With an application id the application is moved
// to completed in the same transaction and names are taken from it.
func (s *certificateService) Issue(ctx context.Context, principal auth.Principal, req *IssueCertificateRequest) (*models.Certificate, error) {
	s.logger.Info("Issuing certificate", "application_id", req.ApplicationID, "user_id", principal.UserID)

	if !principal.HasRole(models.RoleEmployer, models.RoleAdmin) {
		return nil, NewPermissionError(principal.UserID, 0, "certificate", "issue", "employer or admin role required")
	}

	if errs := s.validator.GetBusinessValidator().ValidateCertificateIssue(req); len(errs) > 0 {
		return nil, errs
	}

	var certificate *models.Certificate
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if req.ApplicationID != nil {
			certificate, err = s.issueForApplication(ctx, tx, principal, req)
		} else {
			certificate, err = s.issueStandalone(ctx, tx, principal, req)
		}
		return err
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrCertificateAlreadyIssued
		}
		var permErr *PermissionError
		var transErr *TransitionError
		var valErrs ValidationErrors
		if errors.As(err, &permErr) || errors.As(err, &transErr) || errors.As(err, &valErrs) ||
			errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to issue certificate: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Certificate issued", "certificate_id", certificate.ID, "student_id", certificate.StudentID, "employer_id", certificate.EmployerID)
	publishEvent(ctx, s.publisher, s.logger, events.CertificateIssued, events.CertificateIssuedData{
		CertificateID: certificate.ID.String(),
		ApplicationID: certificate.ApplicationID,
		StudentID:     certificate.StudentID,
		EmployerID:    certificate.EmployerID,
	})

	return certificate, nil
}

func (s *certificateService) issueForApplication(ctx context.Context, tx *gorm.DB, principal auth.Principal, req *IssueCertificateRequest) (*models.Certificate, error) {
	applicationID := *req.ApplicationID

	application, err := s.repo.Application().GetByID(ctx, tx, applicationID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get application: %w", err)
		}
		if principal.IsAdmin() {
			return nil, ErrApplicationNotFound
		}
		return nil, NewPermissionError(principal.UserID, applicationID, "application", "issue certificate", "not the owner")
	}

	opportunity := application.Opportunity
	if opportunity == nil || opportunity.Employer == nil || application.Student == nil || application.Student.User == nil {
		return nil, fmt.Errorf("%w: application %d has incomplete relations", ErrInternal, applicationID)
	}

	if principal.IsEmployer() {
		employer, err := employerProfileOf(ctx, s.repo, tx, principal, "certificate", "issue")
		if err != nil {
			return nil, err
		}
		if opportunity.EmployerID != employer.ID {
			return nil, NewPermissionError(principal.UserID, applicationID, "application", "issue certificate", "not the owner")
		}
	}

	if application.CertificateID != nil {
		return nil, ErrCertificateAlreadyIssued
	}
	if err := CheckTransition(application.Status, models.ApplicationCompleted, ActorSystem, principal.UserID, applicationID); err != nil {
		return nil, err
	}

	title := opportunity.Title
	if req.OpportunityTitle != nil && strings.TrimSpace(*req.OpportunityTitle) != "" {
		title = strings.TrimSpace(*req.OpportunityTitle)
	}
	startDate := req.StartDate
	if startDate == nil {
		startDate = opportunity.StartDate
	}

	now := s.now().UTC()
	certificate := &models.Certificate{
		ApplicationID:    &application.ID,
		StudentID:        application.StudentID,
		EmployerID:       opportunity.EmployerID,
		OpportunityTitle: title,
		StudentName:      application.Student.User.FullName(),
		EmployerName:     opportunity.Employer.CompanyName,
		Description:      req.Description,
		StartDate:        startDate,
		EndDate:          req.EndDate,
	}
	if err := s.repo.Certificate().Create(ctx, tx, certificate); err != nil {
		return nil, err
	}

	history, err := application.AppendStatusChange(models.StatusChange{
		From:      application.Status,
		To:        models.ApplicationCompleted,
		ActorRole: principal.Role,
		ActorID:   principal.UserID,
		At:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build status history: %w", err)
	}

	completed, err := s.repo.Application().MarkCompleted(ctx, tx, application.ID, certificate.ID, map[string]interface{}{
		"completed_at":   now,
		"status_history": history,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete application: %w", err)
	}
	if !completed {
		// Lost a race with another issuance or a status change
		return nil, ErrCertificateAlreadyIssued
	}

	return certificate, nil
}

func (s *certificateService) issueStandalone(ctx context.Context, tx *gorm.DB, principal auth.Principal, req *IssueCertificateRequest) (*models.Certificate, error) {
	var employer *models.EmployerProfile
	var err error

	switch {
	case principal.IsEmployer():
		employer, err = employerProfileOf(ctx, s.repo, tx, principal, "certificate", "issue")
		if err != nil {
			return nil, err
		}
		if req.EmployerID != nil && *req.EmployerID != employer.ID {
			return nil, NewPermissionError(principal.UserID, *req.EmployerID, "employer", "issue certificate", "cannot issue on behalf of another employer")
		}
	default:
		if req.EmployerID == nil {
			return nil, validator.NewFieldError("employer_id", "is required without application_id", nil, "required_without")
		}
		employer, err = s.repo.EmployerProfile().GetByID(ctx, tx, *req.EmployerID)
		if err != nil {
			return nil, notFoundAs(err, ErrEmployerNotFound, "get employer profile")
		}
	}

	student, err := s.repo.StudentProfile().GetByID(ctx, tx, *req.StudentID)
	if err != nil {
		return nil, notFoundAs(err, ErrProfileNotFound, "get student profile")
	}
	if student.User == nil {
		return nil, fmt.Errorf("%w: student profile %d has no user", ErrInternal, student.ID)
	}

	certificate := &models.Certificate{
		StudentID:        student.ID,
		EmployerID:       employer.ID,
		OpportunityTitle: strings.TrimSpace(*req.OpportunityTitle),
		StudentName:      student.User.FullName(),
		EmployerName:     employer.CompanyName,
		Description:      req.Description,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}
	if err := s.repo.Certificate().Create(ctx, tx, certificate); err != nil {
		return nil, err
	}
	return certificate, nil
}

// ===== READS =====

func (s *certificateService) GetByID(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Certificate, error) {
	certificate, err := s.repo.Certificate().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrCertificateNotFound, "get certificate")
	}

	denied := NewPermissionError(principal.UserID, 0, "certificate", "read", "not the holder or issuer")

	switch {
	case principal.IsAdmin():
		return certificate, nil
	case principal.IsStudent():
		student, err := studentProfileOf(ctx, s.repo, nil, principal, "certificate", "read")
		if err != nil {
			return nil, err
		}
		if certificate.StudentID != student.ID {
			return nil, denied
		}
		return certificate, nil
	case principal.IsEmployer():
		employer, err := employerProfileOf(ctx, s.repo, nil, principal, "certificate", "read")
		if err != nil {
			return nil, err
		}
		if certificate.EmployerID != employer.ID {
			return nil, denied
		}
		return certificate, nil
	}
	return nil, denied
}

func (s *certificateService) ListForStudent(ctx context.Context, principal auth.Principal) ([]*models.Certificate, error) {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "certificate", "list")
	if err != nil {
		return nil, err
	}

	certificates, err := s.repo.Certificate().ListByStudent(ctx, nil, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certificates, nil
}

func (s *certificateService) ListIssued(ctx context.Context, principal auth.Principal) ([]*models.Certificate, error) {
	employer, err := employerProfileOf(ctx, s.repo, nil, principal, "certificate", "list")
	if err != nil {
		return nil, err
	}

	certificates, err := s.repo.Certificate().ListByEmployer(ctx, nil, employer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certificates, nil
}
