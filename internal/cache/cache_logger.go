package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Key builders shared by repositories and services.
func OpportunityKey(id uint) string { return fmt.Sprintf("id:%d", id) }

func SkillListKey() string { return "list:all" }

func RecommendationKey(studentID uint, limit int) string {
	return fmt.Sprintf("student:%d:limit:%d", studentID, limit)
}

func StatsKey() string { return "platform" }

func RevokedTokenKey(tokenID string) string { return "revoked:" + tokenID }

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateOpportunityCache drops the cached listing and every cached
// recommendation, since any listing change can reorder any student's results.
func InvalidateOpportunityCache(ctx context.Context, cm *CacheManager, opportunityID uint) {
	if !cm.Enabled() {
		return
	}
	SafeDelete(ctx, cm.Opportunity, OpportunityKey(opportunityID))
	SafeInvalidatePattern(ctx, cm.Recommendation, "*")
}

// InvalidateStudentRecommendations drops one student's cached recommendations.
func InvalidateStudentRecommendations(ctx context.Context, cm *CacheManager, studentID uint) {
	if !cm.Enabled() {
		return
	}
	SafeInvalidatePattern(ctx, cm.Recommendation, fmt.Sprintf("student:%d:*", studentID))
}

func InvalidateSkillCache(ctx context.Context, cm *CacheManager) {
	if !cm.Enabled() {
		return
	}
	SafeDelete(ctx, cm.Skill, SkillListKey())
}

func InvalidateStatsCache(ctx context.Context, cm *CacheManager) {
	if !cm.Enabled() {
		return
	}
	SafeDelete(ctx, cm.Stats, StatsKey())
}
