package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/models"
)

func skills(ids ...uint) []models.Skill {
	out := make([]models.Skill, len(ids))
	for i, id := range ids {
		out[i] = models.Skill{ID: id}
	}
	return out
}

func TestScoreOpportunity(t *testing.T) {
	tests := []struct {
		name        string
		opportunity models.Opportunity
		student     models.StudentProfile
		want        int
	}{
		{
			name:        "no overlap",
			opportunity: models.Opportunity{Skills: skills(1, 2)},
			student:     models.StudentProfile{Skills: skills(3)},
			want:        0,
		},
		{
			name:        "two points per shared skill",
			opportunity: models.Opportunity{Skills: skills(1, 2, 3)},
			student:     models.StudentProfile{Skills: skills(2, 3, 4)},
			want:        4,
		},
		{
			name:        "duplicate listing skills count once",
			opportunity: models.Opportunity{Skills: skills(1, 1)},
			student:     models.StudentProfile{Skills: skills(1)},
			want:        2,
		},
		{
			name:        "program matches case-insensitively",
			opportunity: models.Opportunity{RequiredProgram: ptr("Computer Science")},
			student:     models.StudentProfile{Program: ptr("computer science"), Skills: skills(9)},
			want:        3,
		},
		{
			name:        "empty required program never matches",
			opportunity: models.Opportunity{RequiredProgram: ptr("")},
			student:     models.StudentProfile{Program: ptr("")},
			want:        0,
		},
		{
			name:        "year meets floor",
			opportunity: models.Opportunity{PreferredYear: ptr(3)},
			student:     models.StudentProfile{YearOfStudy: ptr(3)},
			want:        2,
		},
		{
			name:        "year below floor",
			opportunity: models.Opportunity{PreferredYear: ptr(3)},
			student:     models.StudentProfile{YearOfStudy: ptr(2)},
			want:        0,
		},
		{
			name:        "student without year",
			opportunity: models.Opportunity{PreferredYear: ptr(1)},
			student:     models.StudentProfile{},
			want:        0,
		},
		{
			name: "all components",
			opportunity: models.Opportunity{
				Skills:          skills(1, 2),
				RequiredProgram: ptr("Design"),
				PreferredYear:   ptr(2),
			},
			student: models.StudentProfile{
				Skills:      skills(1, 2),
				Program:     ptr("DESIGN"),
				YearOfStudy: ptr(4),
			},
			want: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreOpportunity(&tt.opportunity, &tt.student))
		})
	}
}

func TestRankOpportunities(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	listing := func(id uint, age time.Duration, public bool, skillIDs ...uint) *models.Opportunity {
		return &models.Opportunity{
			ID:         id,
			IsActive:   true,
			IsVerified: public,
			CreatedAt:  base.Add(-age),
			Skills:     skills(skillIDs...),
		}
	}

	student := &models.StudentProfile{Skills: skills(1, 2)}

	t.Run("student without skills gets nothing", func(t *testing.T) {
		pool := []*models.Opportunity{listing(1, 0, true, 1)}
		got := RankOpportunities(pool, &models.StudentProfile{}, 5)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("non-public listings are skipped", func(t *testing.T) {
		pool := []*models.Opportunity{listing(1, 0, false, 1, 2), listing(2, 0, true)}
		got := RankOpportunities(pool, student, 5)
		require.Len(t, got, 1)
		assert.Equal(t, uint(2), got[0].ID)
		assert.Equal(t, 0, got[0].Score)
	})

	t.Run("orders by score then newest then id", func(t *testing.T) {
		pool := []*models.Opportunity{
			listing(1, 2*time.Hour, true, 1),
			listing(2, time.Hour, true, 1),
			listing(3, 3*time.Hour, true, 1, 2),
			listing(4, time.Hour, true, 1),
			listing(5, 0, true),
		}
		got := RankOpportunities(pool, student, 10)

		ids := make([]uint, len(got))
		for i, r := range got {
			ids[i] = r.ID
		}
		assert.Equal(t, []uint{3, 4, 2, 1, 5}, ids)
		assert.Equal(t, 4, got[0].Score)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		pool := []*models.Opportunity{
			listing(1, 0, true, 1),
			listing(2, 0, true, 1, 2),
			listing(3, 0, true),
		}
		got := RankOpportunities(pool, student, 2)
		require.Len(t, got, 2)
		assert.Equal(t, uint(2), got[0].ID)
		assert.Equal(t, uint(1), got[1].ID)
	})
}
