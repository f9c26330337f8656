package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/models"
)

func TestRecommendationService_StudentWithoutSkills(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewRecommendationService(env.deps, RecommendationConfig{})

	env.fx.Opportunity(env.fx.Employer(true))
	student := env.fx.Student()

	got, err := svc.GetRecommended(env.ctx, studentPrincipal(student), 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.GetRecommended(env.ctx, employerPrincipal(env.fx.Employer(true)), 0)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecommendationService_RanksPublicListings(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewRecommendationService(env.deps, RecommendationConfig{DefaultLimit: 2, MaxLimit: 3})

	python := env.fx.Skill("python")
	sql := env.fx.Skill("sql")
	employer := env.fx.Employer(true)

	student := env.fx.Student(func(p *models.StudentProfile) {
		p.Program = ptr("Data Science")
		p.YearOfStudy = ptr(3)
	})
	env.fx.StudentSkills(student, python, sql)

	weak := env.fx.Opportunity(employer)
	env.fx.OpportunitySkills(weak, python)

	strong := env.fx.Opportunity(employer, func(o *models.Opportunity) {
		o.RequiredProgram = ptr("data science")
		o.PreferredYear = ptr(2)
	})
	env.fx.OpportunitySkills(strong, python, sql)

	hidden := env.fx.Opportunity(employer, func(o *models.Opportunity) { o.IsActive = false })
	env.fx.OpportunitySkills(hidden, python, sql)

	unrelated := env.fx.Opportunity(employer)

	got, err := svc.GetRecommended(env.ctx, studentPrincipal(student), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, strong.ID, got[0].ID)
	assert.Equal(t, 9, got[0].Score)
	assert.Equal(t, weak.ID, got[1].ID)
	assert.Equal(t, 2, got[1].Score)

	got, err = svc.GetRecommended(env.ctx, studentPrincipal(student), 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, unrelated.ID, got[2].ID)
	assert.Equal(t, 0, got[2].Score)
}

func TestRecommendationService_CacheInvalidatedBySkillChange(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newTestEnv(t, mr)
	svc := NewRecommendationService(env.deps, RecommendationConfig{})
	profiles := NewProfileService(env.deps)

	python := env.fx.Skill("python")
	sql := env.fx.Skill("sql")
	employer := env.fx.Employer(true)
	student := env.fx.Student()
	env.fx.StudentSkills(student, python)

	opp := env.fx.Opportunity(employer)
	env.fx.OpportunitySkills(opp, python, sql)

	got, err := svc.GetRecommended(env.ctx, studentPrincipal(student), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Score)

	// Served from cache with the stored score
	got, err = svc.GetRecommended(env.ctx, studentPrincipal(student), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, opp.ID, got[0].ID)
	assert.Equal(t, 2, got[0].Score)

	_, err = profiles.AddStudentSkills(env.ctx, studentPrincipal(student), &AddSkillsRequest{SkillIDs: []uint{sql.ID}})
	require.NoError(t, err)

	got, err = svc.GetRecommended(env.ctx, studentPrincipal(student), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Score)
}
