package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
)

func TestAdminService_VerifyEmployerIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)
	admin := env.admin(t)

	employer := env.fx.Employer(false)

	verified, err := svc.VerifyEmployer(env.ctx, admin, employer.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	require.NotNil(t, verified.User)
	assert.Equal(t, models.UserStatusActive, verified.User.Status)

	verified, err = svc.VerifyEmployer(env.ctx, admin, employer.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Equal(t, models.UserStatusActive, verified.User.Status)

	_, err = svc.VerifyEmployer(env.ctx, admin, 9999)
	assert.ErrorIs(t, err, ErrEmployerNotFound)

	_, err = svc.VerifyEmployer(env.ctx, employerPrincipal(employer), employer.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Len(t, env.publisher.EventsOfType(events.EmployerVerified), 2)
}

func TestAdminService_VerifyEmployerKeepsBannedOwnerBanned(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)

	employer := env.fx.Employer(false)
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", employer.UserID).
		Update("status", models.UserStatusBanned).Error)

	verified, err := svc.VerifyEmployer(env.ctx, env.admin(t), employer.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Equal(t, models.UserStatusBanned, verified.User.Status)
}

func TestAdminService_ListEmployersByVerification(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)

	verified := env.fx.Employer(true)
	pending := env.fx.Employer(false)

	all, err := svc.ListEmployers(env.ctx, models.ListEmployersParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPending, err := svc.ListEmployers(env.ctx, models.ListEmployersParams{Verified: ptr(false)})
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, pending.ID, onlyPending[0].ID)

	onlyVerified, err := svc.ListEmployers(env.ctx, models.ListEmployersParams{Verified: ptr(true)})
	require.NoError(t, err)
	require.Len(t, onlyVerified, 1)
	assert.Equal(t, verified.ID, onlyVerified[0].ID)
}

func TestAdminService_UpdateUserStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)
	admin := env.admin(t)

	student := env.fx.Student()

	user, err := svc.UpdateUserStatus(env.ctx, admin, student.UserID, &UpdateUserStatusRequest{Status: models.UserStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusInactive, user.Status)

	_, err = svc.UpdateUserStatus(env.ctx, admin, admin.UserID, &UpdateUserStatusRequest{Status: models.UserStatusBanned})
	var ruleErr *BusinessRuleError
	require.True(t, errors.As(err, &ruleErr), "got %v", err)
	assert.Equal(t, "self_status_change", ruleErr.Rule)

	_, err = svc.UpdateUserStatus(env.ctx, admin, 9999, &UpdateUserStatusRequest{Status: models.UserStatusActive})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdateUserStatus(env.ctx, admin, student.UserID, &UpdateUserStatusRequest{Status: "frozen"})
	var valErrs ValidationErrors
	assert.True(t, errors.As(err, &valErrs), "got %v", err)
}

func TestAdminService_UpdateUserStatusCannotBypassEmployerVerification(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)
	admin := env.admin(t)

	pending := env.fx.Employer(false)

	_, err := svc.UpdateUserStatus(env.ctx, admin, pending.UserID, &UpdateUserStatusRequest{Status: models.UserStatusActive})
	var ruleErr *BusinessRuleError
	require.True(t, errors.As(err, &ruleErr), "got %v", err)
	assert.Equal(t, "employer_not_verified", ruleErr.Rule)
	assert.Equal(t, pending.ID, ruleErr.Context["employer_id"])

	var user models.User
	require.NoError(t, env.db.First(&user, pending.UserID).Error)
	assert.Equal(t, models.UserStatusPending, user.Status)

	// Pending is not an admin-settable status
	verified := env.fx.Employer(true)
	_, err = svc.UpdateUserStatus(env.ctx, admin, verified.UserID, &UpdateUserStatusRequest{Status: models.UserStatusPending})
	var valErrs ValidationErrors
	require.True(t, errors.As(err, &valErrs), "got %v", err)
	assert.Equal(t, "status", valErrs[0].Field)

	// A verified employer can be deactivated and brought back
	updated, err := svc.UpdateUserStatus(env.ctx, admin, verified.UserID, &UpdateUserStatusRequest{Status: models.UserStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusInactive, updated.Status)

	updated, err = svc.UpdateUserStatus(env.ctx, admin, verified.UserID, &UpdateUserStatusRequest{Status: models.UserStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, updated.Status)

	// Verification remains the way in
	profile, err := svc.VerifyEmployer(env.ctx, admin, pending.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, models.UserStatusActive, profile.User.Status)
}

func TestAdminService_VerifyEmployerRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 5)
	admin := env.admin(t)

	employer := env.fx.Employer(false)
	env.refuseUpdates(t, "users")

	_, err := svc.VerifyEmployer(env.ctx, admin, employer.ID)
	require.ErrorIs(t, err, errWriteRefused)

	var profile models.EmployerProfile
	require.NoError(t, env.db.First(&profile, employer.ID).Error)
	assert.False(t, profile.IsVerified)

	var user models.User
	require.NoError(t, env.db.First(&user, employer.UserID).Error)
	assert.Equal(t, models.UserStatusPending, user.Status)

	assert.Empty(t, env.publisher.EventsOfType(events.EmployerVerified))
}

func TestAdminService_Stats(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAdminService(env.deps, 1)

	busy := env.fx.Employer(true)
	env.fx.Employer(false)
	student := env.fx.Student()

	opp := env.fx.Opportunity(busy)
	env.fx.Opportunity(busy, func(o *models.Opportunity) { o.IsActive = false })
	env.fx.Application(student, opp, models.ApplicationPending)

	stats, err := svc.Stats(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.UsersByRole[models.RoleEmployer])
	assert.EqualValues(t, 1, stats.UsersByRole[models.RoleStudent])
	assert.EqualValues(t, 1, stats.PendingEmployers)
	assert.EqualValues(t, 2, stats.TotalOpportunities)
	assert.EqualValues(t, 1, stats.ActiveOpportunities)
	assert.EqualValues(t, 1, stats.ApplicationsByStatus[models.ApplicationPending])
	require.Len(t, stats.TopEmployers, 1)
	assert.Equal(t, busy.ID, stats.TopEmployers[0].EmployerID)
	assert.EqualValues(t, 2, stats.TopEmployers[0].OpportunityCount)
}

func TestExportService_PlatformReport(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewExportService(env.deps)

	employer := env.fx.Employer(true)
	student := env.fx.Student()
	opp := env.fx.Opportunity(employer, func(o *models.Opportunity) { o.Title = "Report intern" })
	env.fx.Opportunity(employer, func(o *models.Opportunity) { o.IsVerified = false })
	env.fx.Application(student, opp, models.ApplicationAccepted)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportPlatformReport(env.ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetEmployers, SheetOpportunities, SheetApplications}, f.GetSheetList())

	rows, err := f.GetRows(SheetEmployers)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Company", rows[0][1])
	assert.Equal(t, employer.CompanyName, rows[1][1])

	rows, err = f.GetRows(SheetOpportunities)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.GetRows(SheetApplications)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, student.User.FullName(), rows[1][1])
	assert.Equal(t, "Report intern", rows[1][2])
	assert.Equal(t, string(models.ApplicationAccepted), rows[1][3])
}
