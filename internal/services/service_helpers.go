package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"gorm.io/gorm"
)

// ===== TRANSACTIONS =====

func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// ===== EVENTS =====

// publishEvent runs after commit. A failed publish is logged and never undoes
// the mutation.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType string, data interface{}) {
	event := events.NewEvent(eventType, data)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event", "event_type", eventType, "event_id", event.ID, "error", err)
	}
}

// ===== PROFILE RESOLUTION =====

// studentProfileOf loads the caller's student profile. Non-students get a
// PermissionError for action.
func studentProfileOf(ctx context.Context, repo repositories.Repository, tx *gorm.DB, principal auth.Principal, resource, action string) (*models.StudentProfile, error) {
	if !principal.IsStudent() {
		return nil, NewPermissionError(principal.UserID, 0, resource, action, "student role required")
	}
	profile, err := repo.StudentProfile().GetByUserID(ctx, tx, principal.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	return profile, nil
}

// employerProfileOf loads the caller's employer profile. Non-employers get a
// PermissionError for action.
func employerProfileOf(ctx context.Context, repo repositories.Repository, tx *gorm.DB, principal auth.Principal, resource, action string) (*models.EmployerProfile, error) {
	if !principal.IsEmployer() {
		return nil, NewPermissionError(principal.UserID, 0, resource, action, "employer role required")
	}
	profile, err := repo.EmployerProfile().GetByUserID(ctx, tx, principal.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get employer profile: %w", err)
	}
	return profile, nil
}

// ===== SKILLS =====

// resolveSkillIDs merges explicit ids with get-or-create by name. Unknown ids
// are a validation failure.
func resolveSkillIDs(ctx context.Context, repo repositories.Repository, tx *gorm.DB, ids []uint, names []string) ([]uint, error) {
	out := make([]uint, 0, len(ids)+len(names))
	seen := make(map[uint]struct{}, len(ids)+len(names))
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	if len(ids) > 0 {
		found, err := repo.Skill().GetByIDs(ctx, tx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load skills: %w", err)
		}
		known := make(map[uint]struct{}, len(found))
		for _, s := range found {
			known[s.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return nil, ValidationErrors{{
					Field:   "skill_ids",
					Message: "references an unknown skill",
					Value:   id,
					Rule:    "exists",
				}}
			}
			add(id)
		}
	}

	for _, raw := range names {
		name := models.NormalizeSkillName(raw)
		if name == "" {
			continue
		}
		skill, err := repo.Skill().FindOrCreate(ctx, tx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get or create skill %q: %w", name, err)
		}
		add(skill.ID)
	}

	return out, nil
}

// ===== ERROR TRANSLATION =====

// notFoundAs maps a gorm not-found error to target and wraps anything else.
func notFoundAs(err error, target error, op string) error {
	if err == nil {
		return nil
	}
	if repositories.IsNotFoundError(err) {
		return target
	}
	var permErr *PermissionError
	var valErrs ValidationErrors
	var ruleErr *BusinessRuleError
	if errors.As(err, &permErr) || errors.As(err, &valErrs) || errors.As(err, &ruleErr) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
