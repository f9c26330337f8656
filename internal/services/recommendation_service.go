package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/cache"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
)

type recommendationService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cache  *cache.CacheManager
	config RecommendationConfig
}

func NewRecommendationService(deps Dependencies, config RecommendationConfig) RecommendationService {
	deps = withDefaults(deps)
	return &recommendationService{
		repo:   deps.Repo,
		logger: deps.Logger,
		cache:  deps.Cache,
		config: ServiceManagerConfig{Recommendation: config}.withDefaults().Recommendation,
	}
}

func (s *recommendationService) GetRecommended(ctx context.Context, principal auth.Principal, limit int) ([]*models.RecommendedOpportunity, error) {
	student, err := studentProfileOf(ctx, s.repo, nil, principal, "recommendation", "read")
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	// Nothing to match against; skip the pool scan and the cache
	if len(student.Skills) == 0 {
		return []*models.RecommendedOpportunity{}, nil
	}

	var recommended []*models.RecommendedOpportunity
	err = s.cache.Recommendation.CacheOrExecute(ctx, cache.RecommendationKey(student.ID, limit), &recommended, s.config.CacheTTL, func() (interface{}, error) {
		pool, err := s.repo.Opportunity().ListPublic(ctx, nil)
		if err != nil {
			return nil, err
		}
		return RankOpportunities(pool, student, limit), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	s.logger.Debug("Recommendations computed", "student_id", student.ID, "limit", limit, "count", len(recommended))
	return recommended, nil
}
