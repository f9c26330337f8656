package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

type profileService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
}

func NewProfileService(deps Dependencies) ProfileService {
	deps = withDefaults(deps)
	return &profileService{
		repo:      deps.Repo,
		db:        deps.DB,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
	}
}

// ===== STUDENT PROFILE =====

func (s *profileService) GetStudentProfile(ctx context.Context, principal auth.Principal) (*models.StudentProfile, error) {
	return studentProfileOf(ctx, s.repo, nil, principal, "student_profile", "read")
}

func (s *profileService) UpdateStudentProfile(ctx context.Context, principal auth.Principal, req *StudentProfileUpdateRequest, cvURL *string) (*models.StudentProfile, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	profile, err := studentProfileOf(ctx, s.repo, nil, principal, "student_profile", "update")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updating student profile", "profile_id", profile.ID, "user_id", principal.UserID)

	updates := make(map[string]interface{})
	if req.Institution != nil {
		updates["institution"] = strings.TrimSpace(*req.Institution)
	}
	if req.Program != nil {
		updates["program"] = strings.TrimSpace(*req.Program)
	}
	if req.YearOfStudy != nil {
		updates["year_of_study"] = *req.YearOfStudy
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.IsProfileVisible != nil {
		updates["is_profile_visible"] = *req.IsProfileVisible
	}
	if cvURL != nil {
		updates["cv_url"] = *cvURL
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.StudentProfile().Update(ctx, tx, profile.ID, updates); err != nil {
			return fmt.Errorf("failed to update student profile: %w", err)
		}
		if len(req.SkillIDs) == 0 && len(req.SkillNames) == 0 {
			return nil
		}
		skillIDs, err := resolveSkillIDs(ctx, s.repo, tx, req.SkillIDs, req.SkillNames)
		if err != nil {
			return err
		}
		return s.repo.StudentProfile().AddSkills(ctx, tx, profile.ID, skillIDs)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrProfileNotFound, "update student profile")
	}

	if len(req.SkillNames) > 0 {
		cache.InvalidateSkillCache(ctx, s.cache)
	}
	cache.InvalidateStudentRecommendations(ctx, s.cache, profile.ID)

	return s.repo.StudentProfile().GetByID(ctx, nil, profile.ID)
}

func (s *profileService) AddStudentSkills(ctx context.Context, principal auth.Principal, req *AddSkillsRequest) ([]models.Skill, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	profile, err := studentProfileOf(ctx, s.repo, nil, principal, "student_skills", "add")
	if err != nil {
		return nil, err
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		skillIDs, err := resolveSkillIDs(ctx, s.repo, tx, req.SkillIDs, nil)
		if err != nil {
			return err
		}
		return s.repo.StudentProfile().AddSkills(ctx, tx, profile.ID, skillIDs)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrProfileNotFound, "add student skills")
	}

	s.logger.Info("Student skills added", "profile_id", profile.ID, "count", len(req.SkillIDs))
	cache.InvalidateStudentRecommendations(ctx, s.cache, profile.ID)

	skills, err := s.repo.StudentProfile().GetSkills(ctx, nil, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student skills: %w", err)
	}
	return skills, nil
}

func (s *profileService) RemoveStudentSkill(ctx context.Context, principal auth.Principal, skillID uint) error {
	profile, err := studentProfileOf(ctx, s.repo, nil, principal, "student_skills", "remove")
	if err != nil {
		return err
	}

	// Removing a skill the student never had is a no-op
	if err := s.repo.StudentProfile().RemoveSkill(ctx, nil, profile.ID, skillID); err != nil {
		return fmt.Errorf("failed to remove student skill: %w", err)
	}

	s.logger.Info("Student skill removed", "profile_id", profile.ID, "skill_id", skillID)
	cache.InvalidateStudentRecommendations(ctx, s.cache, profile.ID)
	return nil
}

// ===== EMPLOYER PROFILE =====

func (s *profileService) GetEmployerProfile(ctx context.Context, principal auth.Principal) (*models.EmployerProfile, error) {
	return employerProfileOf(ctx, s.repo, nil, principal, "employer_profile", "read")
}

func (s *profileService) UpdateEmployerProfile(ctx context.Context, principal auth.Principal, req *EmployerProfileUpdateRequest, logoURL *string) (*models.EmployerProfile, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if req.IsVerified != nil {
		return nil, validator.NewFieldError("is_verified", "can only be changed by an administrator", *req.IsVerified, "admin_only")
	}

	profile, err := employerProfileOf(ctx, s.repo, nil, principal, "employer_profile", "update")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updating employer profile", "profile_id", profile.ID, "user_id", principal.UserID)

	updates := make(map[string]interface{})
	if req.CompanyName != nil {
		updates["company_name"] = strings.TrimSpace(*req.CompanyName)
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.ContactPhone != nil {
		updates["contact_phone"] = *req.ContactPhone
	}
	if logoURL != nil {
		updates["logo_url"] = *logoURL
	}

	if err := s.repo.EmployerProfile().Update(ctx, nil, profile.ID, updates); err != nil {
		return nil, notFoundAs(err, ErrProfileNotFound, "update employer profile")
	}

	return s.repo.EmployerProfile().GetByID(ctx, nil, profile.ID)
}

// ===== SKILLS =====

func (s *profileService) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	skills, err := s.repo.Skill().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

func (s *profileService) GetOrCreateSkill(ctx context.Context, name string) (*models.Skill, error) {
	normalized := models.NormalizeSkillName(name)
	if normalized == "" {
		return nil, validator.NewFieldError("name", "is required", name, "required")
	}

	skill, err := s.repo.Skill().FindOrCreate(ctx, nil, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create skill: %w", err)
	}
	return skill, nil
}
