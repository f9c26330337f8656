package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
)

type adminService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	cache        *cache.CacheManager
	publisher    events.EventPublisher
	topEmployers int
}

func NewAdminService(deps Dependencies, topEmployers int) AdminService {
	deps = withDefaults(deps)
	if topEmployers <= 0 {
		topEmployers = DefaultServiceManagerConfig().TopEmployers
	}
	return &adminService{
		repo:         deps.Repo,
		logger:       deps.Logger,
		validator:    deps.Validator,
		cache:        deps.Cache,
		publisher:    deps.Publisher,
		topEmployers: topEmployers,
	}
}

func (s *adminService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	stats, err := s.repo.Dashboard().GetPlatformStats(ctx, nil, s.topEmployers)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return stats, nil
}

func (s *adminService) ListEmployers(ctx context.Context, params models.ListEmployersParams) ([]*models.EmployerProfile, error) {
	employers, err := s.repo.EmployerProfile().List(ctx, nil, repositories.EmployerFilters{Verified: params.Verified})
	if err != nil {
		return nil, fmt.Errorf("failed to list employers: %w", err)
	}
	return employers, nil
}

// VerifyEmployer marks the profile verified and activates a pending owner in
// one transaction. Repeating it is a no-op.
func (s *adminService) VerifyEmployer(ctx context.Context, principal auth.Principal, employerID uint) (*models.EmployerProfile, error) {
	if !principal.IsAdmin() {
		return nil, NewPermissionError(principal.UserID, employerID, "employer", "verify", "admin role required")
	}

	s.logger.Info("Verifying employer", "employer_id", employerID, "admin_id", principal.UserID)

	var (
		userID    uint
		activated bool
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		employer, err := tx.EmployerProfile().GetByID(ctx, nil, employerID)
		if err != nil {
			return err
		}
		userID = employer.UserID

		if err := tx.EmployerProfile().MarkVerified(ctx, nil, employerID); err != nil {
			return fmt.Errorf("failed to mark employer verified: %w", err)
		}
		activated, err = tx.User().ActivateIfPending(ctx, nil, employer.UserID)
		if err != nil {
			return fmt.Errorf("failed to activate employer account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrEmployerNotFound, "verify employer")
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Employer verified", "employer_id", employerID, "user_id", userID, "activated", activated)
	publishEvent(ctx, s.publisher, s.logger, events.EmployerVerified, events.EmployerVerifiedData{
		EmployerID: employerID,
		UserID:     userID,
	})

	employer, err := s.repo.EmployerProfile().GetByID(ctx, nil, employerID)
	if err != nil {
		return nil, notFoundAs(err, ErrEmployerNotFound, "get employer profile")
	}
	return employer, nil
}

// VerifyOpportunity sets the verified flag only. The owner's active toggle is
// left alone.
func (s *adminService) VerifyOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint) (*models.Opportunity, error) {
	if !principal.IsAdmin() {
		return nil, NewPermissionError(principal.UserID, opportunityID, "opportunity", "verify", "admin role required")
	}

	s.logger.Info("Verifying opportunity", "opportunity_id", opportunityID, "admin_id", principal.UserID)

	if err := s.repo.Opportunity().Update(ctx, nil, opportunityID, map[string]interface{}{"is_verified": true}); err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "verify opportunity")
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, opportunityID)
	if err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
	}

	publishEvent(ctx, s.publisher, s.logger, events.OpportunityVerified, events.OpportunityData{
		OpportunityID: opportunity.ID,
		EmployerID:    opportunity.EmployerID,
		ActorID:       principal.UserID,
	})
	return opportunity, nil
}

func (s *adminService) UpdateUserStatus(ctx context.Context, principal auth.Principal, userID uint, req *UpdateUserStatusRequest) (*models.User, error) {
	if !principal.IsAdmin() {
		return nil, NewPermissionError(principal.UserID, userID, "user", "update status", "admin role required")
	}
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if userID == principal.UserID {
		return nil, NewBusinessRuleError("self_status_change", "administrators cannot change their own status",
			map[string]interface{}{"user_id": userID})
	}

	target, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}

	// Employer accounts are activated together with their verification
	if target.Role == models.RoleEmployer && req.Status == models.UserStatusActive {
		employer, err := s.repo.EmployerProfile().GetByUserID(ctx, nil, userID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get employer profile: %w", err)
		}
		if employer == nil || !employer.IsVerified {
			details := map[string]interface{}{"user_id": userID}
			if employer != nil {
				details["employer_id"] = employer.ID
			}
			return nil, NewBusinessRuleError("employer_not_verified",
				"unverified employers are activated by verifying the employer", details)
		}
	}

	s.logger.Info("Updating user status", "user_id", userID, "status", req.Status, "admin_id", principal.UserID)

	if err := s.repo.User().UpdateStatus(ctx, nil, userID, req.Status); err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "update user status")
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}
	return user, nil
}
