package services

import (
	"sort"
	"strings"

	"github.com/kimconnect/internship-service/internal/models"
)

// Score weights
const (
	skillMatchPoints   = 2
	programMatchPoints = 3
	yearMatchPoints    = 2
)

// ScoreOpportunity rates how well a listing fits a student. It is pure and
// reads only the loaded skills of both sides.
func ScoreOpportunity(opportunity *models.Opportunity, student *models.StudentProfile) int {
	studentSkills := make(map[uint]struct{}, len(student.Skills))
	for _, skill := range student.Skills {
		studentSkills[skill.ID] = struct{}{}
	}

	score := 0
	counted := make(map[uint]struct{}, len(opportunity.Skills))
	for _, skill := range opportunity.Skills {
		if _, dup := counted[skill.ID]; dup {
			continue
		}
		counted[skill.ID] = struct{}{}
		if _, ok := studentSkills[skill.ID]; ok {
			score += skillMatchPoints
		}
	}

	if programMatches(opportunity.RequiredProgram, student.Program) {
		score += programMatchPoints
	}

	if opportunity.PreferredYear != nil && *opportunity.PreferredYear > 0 &&
		student.YearOfStudy != nil && *student.YearOfStudy >= *opportunity.PreferredYear {
		score += yearMatchPoints
	}

	return score
}

func programMatches(required, program *string) bool {
	if required == nil || program == nil {
		return false
	}
	r := strings.TrimSpace(*required)
	p := strings.TrimSpace(*program)
	if r == "" || p == "" {
		return false
	}
	return strings.EqualFold(r, p)
}

// RankOpportunities scores the public subset of pool and returns at most limit
// entries. Ties are broken by newer listing first, then higher id. A student
// without skills gets no recommendations.
func RankOpportunities(pool []*models.Opportunity, student *models.StudentProfile, limit int) []*models.RecommendedOpportunity {
	ranked := make([]*models.RecommendedOpportunity, 0, len(pool))
	if student == nil || len(student.Skills) == 0 || limit <= 0 {
		return ranked
	}

	for _, opportunity := range pool {
		if opportunity == nil || !opportunity.IsPublic() {
			continue
		}
		ranked = append(ranked, &models.RecommendedOpportunity{
			Opportunity: opportunity,
			Score:       ScoreOpportunity(opportunity, student),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
