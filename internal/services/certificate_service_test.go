package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
)

func TestCertificateService_IssueCompletesApplication(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewCertificateService(env.deps)

	employer := env.fx.Employer(true)
	opp := env.fx.Opportunity(employer, func(o *models.Opportunity) { o.Title = "Data intern" })
	student := env.fx.Student()
	app := env.fx.Application(student, opp, models.ApplicationAccepted)

	cert, err := svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{ApplicationID: &app.ID})
	require.NoError(t, err)
	assert.Equal(t, "Data intern", cert.OpportunityTitle)
	assert.Equal(t, student.User.FullName(), cert.StudentName)
	assert.Equal(t, employer.CompanyName, cert.EmployerName)
	assert.Equal(t, student.ID, cert.StudentID)
	assert.Equal(t, employer.ID, cert.EmployerID)

	var stored models.Application
	require.NoError(t, env.db.First(&stored, app.ID).Error)
	assert.Equal(t, models.ApplicationCompleted, stored.Status)
	require.NotNil(t, stored.CertificateID)
	assert.Equal(t, cert.ID, *stored.CertificateID)
	assert.NotNil(t, stored.CompletedAt)

	// Later profile edits leave the issued record alone
	require.NoError(t, env.db.Model(&models.EmployerProfile{}).Where("id = ?", employer.ID).
		Update("company_name", "Renamed Inc").Error)
	got, err := svc.GetByID(env.ctx, studentPrincipal(student), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, employer.CompanyName, got.EmployerName)

	_, err = svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{ApplicationID: &app.ID})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Len(t, env.publisher.EventsOfType(events.CertificateIssued), 1)
}

func TestCertificateService_IssueRequiresAcceptedOwnedApplication(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewCertificateService(env.deps)

	owner := env.fx.Employer(true)
	stranger := env.fx.Employer(true)
	opp := env.fx.Opportunity(owner)
	pending := env.fx.Application(env.fx.Student(), opp, models.ApplicationPending)
	accepted := env.fx.Application(env.fx.Student(), opp, models.ApplicationAccepted)

	_, err := svc.Issue(env.ctx, employerPrincipal(owner), &IssueCertificateRequest{ApplicationID: &pending.ID})
	var transErr *TransitionError
	require.True(t, errors.As(err, &transErr), "got %v", err)

	_, err = svc.Issue(env.ctx, employerPrincipal(stranger), &IssueCertificateRequest{ApplicationID: &accepted.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// Nothing was written by the failed attempts
	var count int64
	require.NoError(t, env.db.Model(&models.Certificate{}).Count(&count).Error)
	assert.Zero(t, count)

	var stored models.Application
	require.NoError(t, env.db.First(&stored, accepted.ID).Error)
	assert.Equal(t, models.ApplicationAccepted, stored.Status)
	assert.Nil(t, stored.CertificateID)
}

func TestCertificateService_StandaloneAndReads(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewCertificateService(env.deps)

	employer := env.fx.Employer(true)
	other := env.fx.Employer(true)
	student := env.fx.Student()
	outsider := env.fx.Student()

	_, err := svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{
		StudentID:        &student.ID,
		EmployerID:       &other.ID,
		OpportunityTitle: ptr("Volunteer day"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{StudentID: &student.ID})
	var valErrs ValidationErrors
	require.True(t, errors.As(err, &valErrs), "got %v", err)

	cert, err := svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{
		StudentID:        &student.ID,
		OpportunityTitle: ptr("Volunteer day"),
	})
	require.NoError(t, err)
	assert.Nil(t, cert.ApplicationID)
	assert.Equal(t, employer.ID, cert.EmployerID)

	_, err = svc.Issue(env.ctx, studentPrincipal(student), &IssueCertificateRequest{
		StudentID:        &student.ID,
		OpportunityTitle: ptr("Self issued"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetByID(env.ctx, studentPrincipal(outsider), cert.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetByID(env.ctx, employerPrincipal(other), cert.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetByID(env.ctx, env.admin(t), cert.ID)
	assert.NoError(t, err)

	mine, err := svc.ListForStudent(env.ctx, studentPrincipal(student))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	issued, err := svc.ListIssued(env.ctx, employerPrincipal(employer))
	require.NoError(t, err)
	assert.Len(t, issued, 1)

	issued, err = svc.ListIssued(env.ctx, employerPrincipal(other))
	require.NoError(t, err)
	assert.Empty(t, issued)
}

func TestCertificateService_IssueRollsBackWhenCompletionFails(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewCertificateService(env.deps)

	employer := env.fx.Employer(true)
	app := env.fx.Application(env.fx.Student(), env.fx.Opportunity(employer), models.ApplicationAccepted)
	env.refuseUpdates(t, "applications")

	_, err := svc.Issue(env.ctx, employerPrincipal(employer), &IssueCertificateRequest{ApplicationID: &app.ID})
	require.ErrorIs(t, err, errWriteRefused)

	// The certificate insert is rolled back with the completion
	var count int64
	require.NoError(t, env.db.Model(&models.Certificate{}).Count(&count).Error)
	assert.Zero(t, count)

	var stored models.Application
	require.NoError(t, env.db.First(&stored, app.ID).Error)
	assert.Equal(t, models.ApplicationAccepted, stored.Status)
	assert.Nil(t, stored.CertificateID)
	assert.Nil(t, stored.CompletedAt)

	assert.Empty(t, env.publisher.EventsOfType(events.CertificateIssued))
}
