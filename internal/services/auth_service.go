package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kimconnect/internship-service/internal/auth"
	"github.com/kimconnect/internship-service/internal/events"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/repositories"
	"github.com/kimconnect/internship-service/internal/validator"
	"gorm.io/gorm"
)

type authService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	validator   *validator.Validator
	publisher   events.EventPublisher
	tokens      *auth.TokenService
	passwords   auth.PasswordHasher
	revocations *auth.RevocationStore

	// Compared against when the email is unknown so both failure paths cost the same
	dummyHash string
}

func NewAuthService(deps Dependencies) AuthService {
	deps = withDefaults(deps)
	s := &authService{
		repo:        deps.Repo,
		db:          deps.DB,
		logger:      deps.Logger,
		validator:   deps.Validator,
		publisher:   deps.Publisher,
		tokens:      deps.Tokens,
		passwords:   deps.Passwords,
		revocations: deps.Revocations,
	}
	if hash, err := s.passwords.Hash("internship-service-dummy"); err == nil {
		s.dummyHash = hash
	}
	return s
}

// ===== REGISTRATION =====

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	s.logger.Info("Registering user", "email", req.Email, "role", req.Role)

	if errs := s.validator.GetBusinessValidator().ValidateRegistration(req); len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Status:       models.UserStatusActive,
	}
	if req.Role == models.RoleEmployer {
		user.Status = models.UserStatusPending
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			return err
		}

		switch req.Role {
		case models.RoleStudent:
			profile := &models.StudentProfile{
				UserID:           user.ID,
				Institution:      req.Institution,
				Program:          req.Program,
				YearOfStudy:      req.YearOfStudy,
				IsProfileVisible: true,
			}
			if err := s.repo.StudentProfile().Create(ctx, tx, profile); err != nil {
				return fmt.Errorf("failed to create student profile: %w", err)
			}
		case models.RoleEmployer:
			profile := &models.EmployerProfile{
				UserID:      user.ID,
				CompanyName: strings.TrimSpace(*req.CompanyName),
				Industry:    req.Industry,
			}
			if err := s.repo.EmployerProfile().Create(ctx, tx, profile); err != nil {
				return fmt.Errorf("failed to create employer profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same email
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role, "status", user.Status)
	publishEvent(ctx, s.publisher, s.logger, events.UserRegistered, events.UserRegisteredData{
		UserID: user.ID,
		Role:   string(user.Role),
		Status: string(user.Status),
	})

	// Employers wait for verification before they may log in
	if user.Status != models.UserStatusActive {
		return &AuthResult{User: user}, nil
	}
	return s.issueSession(user)
}

// ===== LOGIN / LOGOUT =====

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		_ = s.passwords.Compare(s.dummyHash, req.Password)
		return nil, ErrInvalidCredentials
	}

	if err := s.passwords.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn("Failed login attempt", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return nil, &AccountNotActiveError{Status: user.Status}
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return s.issueSession(user)
}

func (s *authService) Logout(ctx context.Context, session *Session) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.logger.Info("User logged out", "user_id", session.Principal.UserID)
	return nil
}

func (s *authService) issueSession(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(auth.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time
	return &AuthResult{User: user, Token: token, ExpiresAt: &expiresAt}, nil
}

// ===== SESSION RESOLUTION =====

func (s *authService) ResolveSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) && s.repo.Identity().Enabled() {
			return s.resolveExternal(ctx, token)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token revocation", "error", err)
	}
	if revoked {
		return nil, ErrSessionRevoked
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &Session{
		// Role comes from the store, not the token
		Principal: auth.Principal{UserID: user.ID, Role: user.Role},
		User:      user,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// resolveExternal maps an SSO token to an existing local account by email.
func (s *authService) resolveExternal(ctx context.Context, token string) (*Session, error) {
	identity, err := s.repo.Identity().ResolveToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, identity.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: no local account for external identity", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != models.UserStatusActive {
		return nil, &AccountNotActiveError{Status: user.Status}
	}

	return &Session{
		Principal: auth.Principal{UserID: user.ID, Role: user.Role},
		User:      user,
	}, nil
}

func (s *authService) activeUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != models.UserStatusActive {
		return nil, &AccountNotActiveError{Status: user.Status}
	}
	return user, nil
}

// ===== CURRENT USER =====

func (s *authService) Me(ctx context.Context, principal auth.Principal) (*models.CurrentUser, error) {
	user, err := s.repo.User().GetByID(ctx, nil, principal.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "get user")
	}

	current := &models.CurrentUser{User: user}
	switch user.Role {
	case models.RoleStudent:
		profile, err := s.repo.StudentProfile().GetByUserID(ctx, nil, user.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get student profile: %w", err)
		}
		if profile != nil {
			profile.User = nil
		}
		current.StudentProfile = profile
	case models.RoleEmployer:
		profile, err := s.repo.EmployerProfile().GetByUserID(ctx, nil, user.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get employer profile: %w", err)
		}
		if profile != nil {
			profile.User = nil
		}
		current.EmployerProfile = profile
	}
	return current, nil
}

// ===== BOOTSTRAP =====

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			s.logger.Warn("Bootstrap admin email belongs to a non-admin user", "user_id", existing.ID)
		}
		return nil
	}
	if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := s.repo.User().Create(ctx, nil, admin); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("Bootstrap admin created", "user_id", admin.ID)
	return nil
}
