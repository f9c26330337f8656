package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

type applicationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher events.EventPublisher
	now       func() time.Time
}

func NewApplicationService(deps Dependencies) ApplicationService {
	deps = withDefaults(deps)
	return &applicationService{
		repo:      deps.Repo,
		db:        deps.DB,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		now:       time.Now,
	}
}

// ===== SUBMISSION =====

func (s *applicationService) Create(ctx context.Context, principal auth.Principal, req *CreateApplicationRequest) (*models.Application, error) {
	s.logger.Info("Creating application", "opportunity_id", req.OpportunityID, "user_id", principal.UserID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	student, err := studentProfileOf(ctx, s.repo, nil, principal, "application", "create")
	if err != nil {
		return nil, err
	}

	opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, req.OpportunityID)
	if err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
	}

	now := s.now()
	if !opportunity.IsPublic() {
		return nil, NewBusinessRuleError("opportunity_open", "opportunity is not open for applications",
			map[string]interface{}{"opportunity_id": opportunity.ID})
	}
	if opportunity.IsClosed(now) {
		return nil, NewBusinessRuleError("application_deadline", "application deadline has passed",
			map[string]interface{}{"opportunity_id": opportunity.ID, "deadline": opportunity.Deadline})
	}

	// Any earlier application blocks a new one, whatever its status
	if _, err := s.repo.Application().GetByStudentAndOpportunity(ctx, nil, student.ID, opportunity.ID); err == nil {
		return nil, ErrApplicationExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	application := &models.Application{
		StudentID:     student.ID,
		OpportunityID: opportunity.ID,
		Status:        models.ApplicationPending,
		CoverLetter:   req.CoverLetter,
	}
	history, err := application.AppendStatusChange(models.StatusChange{
		To:        models.ApplicationPending,
		ActorRole: principal.Role,
		ActorID:   principal.UserID,
		At:        now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build status history: %w", err)
	}
	application.StatusHistory = history
	if err := s.repo.Application().Create(ctx, nil, application); err != nil {
		// The unique index settles concurrent duplicate submissions
		if repositories.IsDuplicateError(err) {
			return nil, ErrApplicationExists
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Application created", "application_id", application.ID, "student_id", student.ID)
	publishEvent(ctx, s.publisher, s.logger, events.ApplicationSubmitted, events.ApplicationData{
		ApplicationID: application.ID,
		OpportunityID: opportunity.ID,
		StudentID:     student.ID,
		ToStatus:      string(models.ApplicationPending),
		ActorID:       principal.UserID,
	})

	return s.reload(ctx, application.ID)
}

// ===== UPDATES =====

// Update narrows the request to what the caller's role may write. Students may
// only withdraw; employers and admins may change status and feedback, and a
// cover letter sent by them is ignored.
func (s *applicationService) Update(ctx context.Context, principal auth.Principal, id uint, req *UpdateApplicationRequest) (*models.Application, error) {
	s.logger.Info("Updating application", "application_id", id, "user_id", principal.UserID)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	application, err := s.authorizeAccess(ctx, principal, id, "update")
	if err != nil {
		return nil, err
	}

	if principal.IsStudent() {
		return s.withdraw(ctx, principal, application, withdrawalFrom(req))
	}
	return s.review(ctx, principal, application, reviewUpdateFrom(req))
}

func (s *applicationService) withdraw(ctx context.Context, principal auth.Principal, application *models.Application, req withdrawal) (*models.Application, error) {
	if req.Status == nil || *req.Status != models.ApplicationWithdrawn {
		return nil, NewPermissionError(principal.UserID, application.ID, "application", "update", "students may only withdraw")
	}
	if err := s.transition(ctx, principal, application, models.ApplicationWithdrawn, nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, application.ID)
}

func (s *applicationService) review(ctx context.Context, principal auth.Principal, application *models.Application, req reviewUpdate) (*models.Application, error) {
	fields := make(map[string]interface{})
	if req.Feedback != nil {
		fields["feedback"] = *req.Feedback
	}

	if req.Status == nil || *req.Status == application.Status {
		if len(fields) > 0 && application.Status.IsTerminal() {
			return nil, NewBusinessRuleError("application_closed", "feedback cannot change once an application is "+string(application.Status),
				map[string]interface{}{"application_id": application.ID, "status": application.Status})
		}
		if err := s.repo.Application().UpdateFields(ctx, nil, application.ID, fields); err != nil {
			return nil, notFoundAs(err, ErrApplicationNotFound, "update application")
		}
		return s.reload(ctx, application.ID)
	}

	if err := s.transition(ctx, principal, application, *req.Status, fields); err != nil {
		return nil, err
	}
	return s.reload(ctx, application.ID)
}

// transition checks the state machine, appends to the history and writes the
// change only if no one moved the application in the meantime.
func (s *applicationService) transition(ctx context.Context, principal auth.Principal, application *models.Application, to models.ApplicationStatus, fields map[string]interface{}) error {
	from := application.Status
	if err := CheckTransition(from, to, actorFor(principal.Role), principal.UserID, application.ID); err != nil {
		return err
	}

	history, err := application.AppendStatusChange(models.StatusChange{
		From:      from,
		To:        to,
		ActorRole: principal.Role,
		ActorID:   principal.UserID,
		At:        s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to build status history: %w", err)
	}

	updates := map[string]interface{}{"status_history": history}
	for k, v := range fields {
		updates[k] = v
	}

	ok, err := s.repo.Application().TransitionStatus(ctx, nil, application.ID, from, to, updates)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if !ok {
		return ErrApplicationChanged
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Application status changed", "application_id", application.ID, "from", from, "to", to, "actor_id", principal.UserID)
	publishEvent(ctx, s.publisher, s.logger, events.ApplicationStatusChanged, events.ApplicationData{
		ApplicationID: application.ID,
		OpportunityID: application.OpportunityID,
		StudentID:     application.StudentID,
		FromStatus:    string(from),
		ToStatus:      string(to),
		ActorID:       principal.UserID,
	})
	return nil
}

// ===== READS =====

func (s *applicationService) GetByID(ctx context.Context, principal auth.Principal, id uint) (*models.Application, error) {
	return s.authorizeAccess(ctx, principal, id, "read")
}

func (s *applicationService) ListForStudent(ctx context.Context, principal auth.Principal, status *models.ApplicationStatus) ([]*models.Application, error) {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "application", "list")
	if err != nil {
		return nil, err
	}

	applications, err := s.repo.Application().ListByStudent(ctx, nil, student.ID, repositories.ApplicationFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

func (s *applicationService) ListForOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint, status *models.ApplicationStatus) ([]*models.Application, error) {
	// Owners keep access to applications of listings they deleted
	opportunity, err := s.repo.Opportunity().GetByIDUnscoped(ctx, nil, opportunityID)

	switch {
	case principal.IsAdmin():
		if err != nil {
			return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
		}
	case principal.IsEmployer():
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get opportunity: %w", err)
		}
		employer, perr := employerProfileOf(ctx, s.repo, nil, principal, "application", "list")
		if perr != nil {
			return nil, perr
		}
		if opportunity == nil || opportunity.EmployerID != employer.ID {
			return nil, NewPermissionError(principal.UserID, opportunityID, "opportunity", "list applications", "not the owner")
		}
	default:
		return nil, NewPermissionError(principal.UserID, opportunityID, "opportunity", "list applications", "employer or admin role required")
	}

	applications, err := s.repo.Application().ListByOpportunity(ctx, nil, opportunityID, repositories.ApplicationFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// authorizeAccess loads an application for its student, the employer owning
// the opportunity, or an admin. Only admins can tell a missing application
// from a forbidden one.
func (s *applicationService) authorizeAccess(ctx context.Context, principal auth.Principal, id uint, action string) (*models.Application, error) {
	application, err := s.repo.Application().GetByID(ctx, nil, id)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	denied := NewPermissionError(principal.UserID, id, "application", action, "not a party to this application")

	switch {
	case principal.IsAdmin():
		if application == nil {
			return nil, ErrApplicationNotFound
		}
		return application, nil

	case principal.IsStudent():
		if application == nil || application.Student == nil || application.Student.UserID != principal.UserID {
			return nil, denied
		}
		return application, nil

	case principal.IsEmployer():
		if application == nil || application.Opportunity == nil {
			return nil, denied
		}
		employer, err := employerProfileOf(ctx, s.repo, nil, principal, "application", action)
		if err != nil {
			return nil, err
		}
		if application.Opportunity.EmployerID != employer.ID {
			return nil, denied
		}
		return application, nil
	}

	return nil, denied
}

func (s *applicationService) reload(ctx context.Context, id uint) (*models.Application, error) {
	application, err := s.repo.Application().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrApplicationNotFound, "get application")
	}
	return application, nil
}
