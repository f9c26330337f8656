package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/models"
)

func skillNames(skills []models.Skill) []string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}

func TestProfileService_GetOrCreateSkillNormalizes(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewProfileService(env.deps)

	first, err := svc.GetOrCreateSkill(env.ctx, "  Machine   Learning ")
	require.NoError(t, err)
	assert.Equal(t, "machine learning", first.Name)

	second, err := svc.GetOrCreateSkill(env.ctx, "machine learning")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.GetOrCreateSkill(env.ctx, "   ")
	var valErrs ValidationErrors
	assert.True(t, errors.As(err, &valErrs), "got %v", err)

	all, err := svc.ListSkills(env.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileService_UpdateStudentProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewProfileService(env.deps)

	student := env.fx.Student()
	existing := env.fx.Skill("python")

	updated, err := svc.UpdateStudentProfile(env.ctx, studentPrincipal(student), &StudentProfileUpdateRequest{
		Program:     ptr("  Software Engineering "),
		YearOfStudy: ptr(3),
		SkillIDs:    []uint{existing.ID},
		SkillNames:  []string{"Python", "Go"},
	}, ptr("/uploads/cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Software Engineering", *updated.Program)
	assert.Equal(t, 3, *updated.YearOfStudy)
	require.NotNil(t, updated.CVURL)
	assert.Equal(t, "/uploads/cv.pdf", *updated.CVURL)
	assert.ElementsMatch(t, []string{"python", "go"}, skillNames(updated.Skills))

	_, err = svc.UpdateStudentProfile(env.ctx, studentPrincipal(student), &StudentProfileUpdateRequest{
		SkillIDs: []uint{9999},
	}, nil)
	var valErrs ValidationErrors
	require.True(t, errors.As(err, &valErrs), "got %v", err)
	assert.Equal(t, "skill_ids", valErrs[0].Field)

	_, err = svc.UpdateStudentProfile(env.ctx, studentPrincipal(student), &StudentProfileUpdateRequest{
		YearOfStudy: ptr(9),
	}, nil)
	assert.True(t, errors.As(err, &valErrs), "got %v", err)

	_, err = svc.GetStudentProfile(env.ctx, employerPrincipal(env.fx.Employer(true)))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProfileService_StudentSkillsAreIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewProfileService(env.deps)

	student := env.fx.Student()
	python := env.fx.Skill("python")
	sql := env.fx.Skill("sql")

	skills, err := svc.AddStudentSkills(env.ctx, studentPrincipal(student), &AddSkillsRequest{SkillIDs: []uint{python.ID, sql.ID}})
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	skills, err = svc.AddStudentSkills(env.ctx, studentPrincipal(student), &AddSkillsRequest{SkillIDs: []uint{python.ID, python.ID}})
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	require.NoError(t, svc.RemoveStudentSkill(env.ctx, studentPrincipal(student), sql.ID))
	require.NoError(t, svc.RemoveStudentSkill(env.ctx, studentPrincipal(student), sql.ID))

	profile, err := svc.GetStudentProfile(env.ctx, studentPrincipal(student))
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, skillNames(profile.Skills))
}

func TestProfileService_EmployerCannotSetVerified(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewProfileService(env.deps)

	employer := env.fx.Employer(false)

	_, err := svc.UpdateEmployerProfile(env.ctx, employerPrincipal(employer), &EmployerProfileUpdateRequest{
		CompanyName: ptr("Acme"),
		IsVerified:  ptr(true),
	}, nil)
	var valErrs ValidationErrors
	require.True(t, errors.As(err, &valErrs), "got %v", err)
	assert.Equal(t, "is_verified", valErrs[0].Field)

	updated, err := svc.UpdateEmployerProfile(env.ctx, employerPrincipal(employer), &EmployerProfileUpdateRequest{
		CompanyName: ptr(" Acme "),
		Website:     ptr("https://acme.test"),
	}, ptr("/uploads/logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.CompanyName)
	assert.False(t, updated.IsVerified)
	require.NotNil(t, updated.LogoURL)
	assert.Equal(t, "/uploads/logo.png", *updated.LogoURL)
}
