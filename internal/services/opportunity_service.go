package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// Keeps page*size well inside the offset range of every driver
	maxPage = 1_000_000
)

type opportunityService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher events.EventPublisher
}

func NewOpportunityService(deps Dependencies) OpportunityService {
	deps = withDefaults(deps)
	return &opportunityService{
		repo:      deps.Repo,
		db:        deps.DB,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		publisher: deps.Publisher,
	}
}

// ===== MUTATIONS =====

func (s *opportunityService) Create(ctx context.Context, principal auth.Principal, req *CreateOpportunityRequest) (*models.Opportunity, error) {
	s.logger.Info("Creating opportunity", "title", req.Title, "user_id", principal.UserID)

	employer, err := employerProfileOf(ctx, s.repo, nil, principal, "opportunity", "create")
	if err != nil {
		return nil, err
	}

	if errs := s.validator.GetBusinessValidator().ValidateOpportunityCreate(req); len(errs) > 0 {
		return nil, errs
	}

	opportunity := &models.Opportunity{
		EmployerID:      employer.ID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Category:        req.Category,
		LocationType:    req.LocationType,
		Location:        req.Location,
		Deadline:        req.Deadline,
		StartDate:       req.StartDate,
		Duration:        req.DurationValue,
		DurationType:    req.DurationType,
		Stipend:         req.Stipend,
		RequiredProgram: req.RequiredProgram,
		PreferredYear:   req.PreferredYear,

		// New listings wait for an administrator regardless of input
		IsActive:   true,
		IsVerified: false,
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Opportunity().Create(ctx, tx, opportunity); err != nil {
			return fmt.Errorf("failed to create opportunity: %w", err)
		}
		skillIDs, err := resolveSkillIDs(ctx, s.repo, tx, req.SkillIDs, req.SkillNames)
		if err != nil {
			return err
		}
		if err := s.repo.Opportunity().AddSkills(ctx, tx, opportunity.ID, skillIDs); err != nil {
			return fmt.Errorf("failed to add opportunity skills: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAs(err, ErrSkillNotFound, "create opportunity")
	}

	cache.InvalidateOpportunityCache(ctx, s.cache, opportunity.ID)
	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Opportunity created", "opportunity_id", opportunity.ID, "employer_id", employer.ID)
	publishEvent(ctx, s.publisher, s.logger, events.OpportunityCreated, events.OpportunityData{
		OpportunityID: opportunity.ID,
		EmployerID:    employer.ID,
		ActorID:       principal.UserID,
	})

	return s.reload(ctx, opportunity.ID)
}

func (s *opportunityService) Update(ctx context.Context, principal auth.Principal, id uint, req *UpdateOpportunityRequest) (*models.Opportunity, error) {
	s.logger.Info("Updating opportunity", "opportunity_id", id, "user_id", principal.UserID)

	opportunity, err := s.authorizeMutation(ctx, principal, id, "update")
	if err != nil {
		return nil, err
	}

	// Employers cannot self-verify; the flag is dropped rather than rejected
	if !principal.IsAdmin() {
		req.IsVerified = nil
	}

	if errs := s.validator.GetBusinessValidator().ValidateOpportunityUpdate(req, opportunity); len(errs) > 0 {
		return nil, errs
	}

	updates := s.buildUpdateMap(req)

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Opportunity().Update(ctx, tx, id, updates); err != nil {
			return err
		}
		if len(req.SkillIDs) == 0 && len(req.SkillNames) == 0 {
			return nil
		}
		skillIDs, err := resolveSkillIDs(ctx, s.repo, tx, req.SkillIDs, req.SkillNames)
		if err != nil {
			return err
		}
		return s.repo.Opportunity().AddSkills(ctx, tx, id, skillIDs)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "update opportunity")
	}

	cache.InvalidateOpportunityCache(ctx, s.cache, id)
	if _, ok := updates["is_active"]; ok {
		cache.InvalidateStatsCache(ctx, s.cache)
	}
	if _, ok := updates["is_verified"]; ok {
		cache.InvalidateStatsCache(ctx, s.cache)
	}

	return s.reload(ctx, id)
}

func (s *opportunityService) buildUpdateMap(req *UpdateOpportunityRequest) map[string]interface{} {
	updates := make(map[string]interface{})

	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.LocationType != nil {
		updates["location_type"] = *req.LocationType
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.DurationValue != nil {
		updates["duration_value"] = *req.DurationValue
	}
	if req.DurationType != nil {
		updates["duration_type"] = *req.DurationType
	}
	if req.RequiredProgram != nil {
		updates["required_program"] = *req.RequiredProgram
	}
	if req.PreferredYear != nil {
		updates["preferred_year"] = *req.PreferredYear
	}
	if req.Stipend != nil {
		updates["stipend"] = *req.Stipend
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}

	return updates
}

func (s *opportunityService) Delete(ctx context.Context, principal auth.Principal, id uint) error {
	s.logger.Info("Deleting opportunity", "opportunity_id", id, "user_id", principal.UserID)

	opportunity, err := s.authorizeMutation(ctx, principal, id, "delete")
	if err != nil {
		return err
	}

	// Applications are kept and keep pointing at the soft-deleted row
	if err := s.repo.Opportunity().Delete(ctx, nil, id); err != nil {
		return notFoundAs(err, ErrOpportunityNotFound, "delete opportunity")
	}

	cache.InvalidateStatsCache(ctx, s.cache)

	s.logger.Info("Opportunity deleted", "opportunity_id", id)
	publishEvent(ctx, s.publisher, s.logger, events.OpportunityDeleted, events.OpportunityData{
		OpportunityID: id,
		EmployerID:    opportunity.EmployerID,
		ActorID:       principal.UserID,
	})
	return nil
}

func (s *opportunityService) RemoveSkill(ctx context.Context, principal auth.Principal, id, skillID uint) error {
	if _, err := s.authorizeMutation(ctx, principal, id, "update"); err != nil {
		return err
	}

	if err := s.repo.Opportunity().RemoveSkill(ctx, nil, id, skillID); err != nil {
		return fmt.Errorf("failed to remove opportunity skill: %w", err)
	}

	s.logger.Info("Opportunity skill removed", "opportunity_id", id, "skill_id", skillID)
	return nil
}

// authorizeMutation loads the listing for an owner or admin. An employer never
// learns whether a listing they do not own exists.
func (s *opportunityService) authorizeMutation(ctx context.Context, principal auth.Principal, id uint, action string) (*models.Opportunity, error) {
	switch {
	case principal.IsAdmin():
		opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, id)
		if err != nil {
			return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
		}
		return opportunity, nil

	case principal.IsEmployer():
		employer, err := employerProfileOf(ctx, s.repo, nil, principal, "opportunity", action)
		if err != nil {
			return nil, err
		}
		opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, NewPermissionError(principal.UserID, id, "opportunity", action, "not the owner")
			}
			return nil, fmt.Errorf("failed to get opportunity: %w", err)
		}
		if opportunity.EmployerID != employer.ID {
			return nil, NewPermissionError(principal.UserID, id, "opportunity", action, "not the owner")
		}
		return opportunity, nil

	default:
		return nil, NewPermissionError(principal.UserID, id, "opportunity", action, "employer or admin role required")
	}
}

func (s *opportunityService) reload(ctx context.Context, id uint) (*models.Opportunity, error) {
	opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
	}
	return opportunity, nil
}

// ===== READS =====

func (s *opportunityService) GetByID(ctx context.Context, principal *auth.Principal, id uint) (*models.OpportunityDetail, error) {
	opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
	}

	visible, err := s.canView(ctx, principal, opportunity)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrOpportunityNotFound
	}

	detail := &models.OpportunityDetail{Opportunity: opportunity}
	if principal == nil || !principal.IsStudent() {
		return detail, nil
	}

	student, err := s.repo.StudentProfile().GetByUserID(ctx, nil, principal.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return detail, nil
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	saved, err := s.repo.SavedOpportunity().Exists(ctx, nil, student.ID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check saved opportunity: %w", err)
	}
	detail.IsSaved = saved

	application, err := s.repo.Application().GetByStudentAndOpportunity(ctx, nil, student.ID, id)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if application != nil {
		detail.HasApplied = true
		status := application.Status
		detail.ApplicationStatus = &status
	}

	return detail, nil
}

// canView reports whether the caller may see the listing. Non-public listings
// are visible to their owner and administrators only.
func (s *opportunityService) canView(ctx context.Context, principal *auth.Principal, opportunity *models.Opportunity) (bool, error) {
	if opportunity.IsPublic() {
		return true, nil
	}
	if principal == nil {
		return false, nil
	}
	if principal.IsAdmin() {
		return true, nil
	}
	if !principal.IsEmployer() {
		return false, nil
	}

	employer, err := s.repo.EmployerProfile().GetByUserID(ctx, nil, principal.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get employer profile: %w", err)
	}
	return opportunity.EmployerID == employer.ID, nil
}

func (s *opportunityService) List(ctx context.Context, principal *auth.Principal, params models.ListOpportunitiesParams, showAll bool) (*models.PaginatedResponse, error) {
	if params.Page < 0 {
		params.Page = 0
	}
	if params.Page > maxPage {
		params.Page = maxPage
	}
	if params.Size <= 0 {
		params.Size = defaultPageSize
	}
	if params.Size > maxPageSize {
		params.Size = maxPageSize
	}

	// Scope is derived from the caller, never from the request
	params.EmployerID = nil
	params.PublicOnly = true

	switch {
	case principal == nil:
	case principal.IsEmployer():
		employer, err := s.repo.EmployerProfile().GetByUserID(ctx, nil, principal.UserID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get employer profile: %w", err)
		}
		if employer != nil {
			params.EmployerID = &employer.ID
			params.PublicOnly = false
		}
	case principal.IsAdmin():
		params.PublicOnly = !showAll
	}

	opportunities, total, err := s.repo.Opportunity().List(ctx, nil, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	return models.NewPaginatedResponse(opportunities, len(opportunities), total, params.Page, params.Size), nil
}

// ===== SAVED OPPORTUNITIES =====

func (s *opportunityService) Save(ctx context.Context, principal auth.Principal, id uint) error {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "saved_opportunity", "create")
	if err != nil {
		return err
	}

	opportunity, err := s.repo.Opportunity().GetByID(ctx, nil, id)
	if err != nil {
		return notFoundAs(err, ErrOpportunityNotFound, "get opportunity")
	}
	if !opportunity.IsPublic() {
		return ErrOpportunityNotFound
	}

	if err := s.repo.SavedOpportunity().Save(ctx, nil, student.ID, id); err != nil {
		return fmt.Errorf("failed to save opportunity: %w", err)
	}

	s.logger.Info("Opportunity saved", "opportunity_id", id, "student_id", student.ID)
	return nil
}

func (s *opportunityService) Unsave(ctx context.Context, principal auth.Principal, id uint) error {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "saved_opportunity", "delete")
	if err != nil {
		return err
	}

	if err := s.repo.SavedOpportunity().Unsave(ctx, nil, student.ID, id); err != nil {
		return fmt.Errorf("failed to unsave opportunity: %w", err)
	}

	s.logger.Info("Opportunity unsaved", "opportunity_id", id, "student_id", student.ID)
	return nil
}

func (s *opportunityService) ListSaved(ctx context.Context, principal auth.Principal) ([]*models.SavedOpportunity, error) {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "saved_opportunity", "list")
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.SavedOpportunity().ListByStudent(ctx, nil, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved opportunities: %w", err)
	}
	return saved, nil
}
