package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
)

func studentRegistration(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:       email,
		Password:    "secret123",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Role:        models.RoleStudent,
		Program:     ptr("Computer Science"),
		YearOfStudy: ptr(2),
	}
}

func TestAuthService_RegisterStudentStartsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)

	result, err := svc.Register(env.ctx, studentRegistration("Ada@Example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.NotNil(t, result.ExpiresAt)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, models.UserStatusActive, result.User.Status)

	session, err := svc.ResolveSession(env.ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, session.Principal.UserID)
	assert.Equal(t, models.RoleStudent, session.Principal.Role)

	me, err := svc.Me(env.ctx, session.Principal)
	require.NoError(t, err)
	require.NotNil(t, me.StudentProfile)
	assert.Nil(t, me.EmployerProfile)
	assert.True(t, me.StudentProfile.IsProfileVisible)
	assert.Equal(t, 2, *me.StudentProfile.YearOfStudy)

	_, err = svc.Register(env.ctx, studentRegistration("ada@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.Len(t, env.publisher.EventsOfType(events.UserRegistered), 1)
}

func TestAuthService_EmployerWaitsForVerification(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)
	admin := NewAdminService(env.deps, 5)

	req := &RegisterRequest{
		Email:       "hr@acme.test",
		Password:    "secret123",
		FirstName:   "Grace",
		LastName:    "Hopper",
		Role:        models.RoleEmployer,
		CompanyName: ptr("  Acme  "),
	}
	result, err := svc.Register(env.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, result.Token)
	assert.Equal(t, models.UserStatusPending, result.User.Status)

	_, err = svc.Login(env.ctx, &LoginRequest{Email: req.Email, Password: req.Password})
	var notActive *AccountNotActiveError
	require.True(t, errors.As(err, &notActive), "got %v", err)
	assert.Equal(t, models.UserStatusPending, notActive.Status)

	me, err := svc.Me(env.ctx, auth.Principal{UserID: result.User.ID, Role: models.RoleEmployer})
	require.NoError(t, err)
	require.NotNil(t, me.EmployerProfile)
	assert.Equal(t, "Acme", me.EmployerProfile.CompanyName)

	_, err = admin.VerifyEmployer(env.ctx, env.admin(t), me.EmployerProfile.ID)
	require.NoError(t, err)

	login, err := svc.Login(env.ctx, &LoginRequest{Email: req.Email, Password: req.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
}

func TestAuthService_RegistrationValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)

	tests := []struct {
		name  string
		req   *RegisterRequest
		field string
	}{
		{
			name:  "admin role is not self-service",
			req:   &RegisterRequest{Email: "root@example.com", Password: "secret123", FirstName: "R", LastName: "T", Role: models.RoleAdmin},
			field: "role",
		},
		{
			name:  "employer needs a company",
			req:   &RegisterRequest{Email: "hr@example.com", Password: "secret123", FirstName: "H", LastName: "R", Role: models.RoleEmployer},
			field: "company_name",
		},
		{
			name:  "short password",
			req:   &RegisterRequest{Email: "s@example.com", Password: "123", FirstName: "S", LastName: "T", Role: models.RoleStudent},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(env.ctx, tt.req)
			var valErrs ValidationErrors
			require.True(t, errors.As(err, &valErrs), "got %v", err)

			fields := make([]string, len(valErrs))
			for i, e := range valErrs {
				fields[i] = e.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)

	_, err := svc.Register(env.ctx, studentRegistration("ada@example.com"))
	require.NoError(t, err)

	_, wrongPassword := svc.Login(env.ctx, &LoginRequest{Email: "ada@example.com", Password: "nope"})
	_, unknownEmail := svc.Login(env.ctx, &LoginRequest{Email: "nobody@example.com", Password: "nope"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_SessionFollowsStoredUser(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)
	admin := NewAdminService(env.deps, 5)

	result, err := svc.Register(env.ctx, studentRegistration("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.ResolveSession(env.ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ResolveSession(env.ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = admin.UpdateUserStatus(env.ctx, env.admin(t), result.User.ID, &UpdateUserStatusRequest{Status: models.UserStatusBanned})
	require.NoError(t, err)

	_, err = svc.ResolveSession(env.ctx, result.Token)
	var notActive *AccountNotActiveError
	require.True(t, errors.As(err, &notActive), "got %v", err)
	assert.Equal(t, models.UserStatusBanned, notActive.Status)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	env := newTestEnv(t, mr)
	svc := NewAuthService(env.deps)

	result, err := svc.Register(env.ctx, studentRegistration("ada@example.com"))
	require.NoError(t, err)

	session, err := svc.ResolveSession(env.ctx, result.Token)
	require.NoError(t, err)
	require.NotEmpty(t, session.TokenID)

	require.NoError(t, svc.Logout(env.ctx, session))

	_, err = svc.ResolveSession(env.ctx, result.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A fresh login is unaffected
	login, err := svc.Login(env.ctx, &LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.ResolveSession(env.ctx, login.Token)
	assert.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := NewAuthService(env.deps)

	require.NoError(t, svc.EnsureAdmin(env.ctx, "admin@example.com", "admin-pass"))
	require.NoError(t, svc.EnsureAdmin(env.ctx, "ADMIN@example.com", "other-pass"))

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	login, err := svc.Login(env.ctx, &LoginRequest{Email: "admin@example.com", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, login.User.Role)

	assert.NoError(t, svc.EnsureAdmin(env.ctx, "", ""))
}

// stubIdentity accepts the tokens it knows and maps them to emails.
type stubIdentity struct {
	emails map[string]string
}

func (s *stubIdentity) Enabled() bool { return true }

func (s *stubIdentity) ResolveToken(_ context.Context, token string) (*repositories.ExternalIdentity, error) {
	email, ok := s.emails[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &repositories.ExternalIdentity{Subject: token, Email: email}, nil
}

type identityRepository struct {
	repositories.Repository
	identity repositories.IdentityRepository
}

func (r *identityRepository) Identity() repositories.IdentityRepository { return r.identity }

func TestAuthService_ExternalTokenMapsToLocalAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	employer := env.fx.Employer(true)
	var employerUser models.User
	require.NoError(t, env.db.First(&employerUser, employer.UserID).Error)
	banned := env.fx.User(models.RoleStudent, models.UserStatusBanned)

	deps := env.deps
	deps.Repo = &identityRepository{
		Repository: env.repo,
		identity: &stubIdentity{emails: map[string]string{
			"sso-employer": employerUser.Email,
			"sso-stranger": "nobody@example.com",
			"sso-banned":   banned.Email,
		}},
	}
	svc := NewAuthService(deps)

	session, err := svc.ResolveSession(env.ctx, "sso-employer")
	require.NoError(t, err)
	assert.Equal(t, employerUser.ID, session.Principal.UserID)
	assert.Equal(t, models.RoleEmployer, session.Principal.Role)
	assert.Empty(t, session.TokenID)

	_, err = svc.ResolveSession(env.ctx, "sso-stranger")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ResolveSession(env.ctx, "sso-unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ResolveSession(env.ctx, "sso-banned")
	var notActive *AccountNotActiveError
	require.True(t, errors.As(err, &notActive), "got %v", err)
	assert.Equal(t, models.UserStatusBanned, notActive.Status)

	// Locally issued tokens still resolve without the identity provider
	local, err := svc.Register(env.ctx, studentRegistration("grace@example.com"))
	require.NoError(t, err)
	session, err = svc.ResolveSession(env.ctx, local.Token)
	require.NoError(t, err)
	assert.Equal(t, local.User.ID, session.Principal.UserID)
}
