package casdoor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/kimconnect/internship-service/internal/repositories"
)

var (
	ErrIdentityDisabled = errors.New("external identity provider is disabled")
	ErrIdentityNoEmail  = errors.New("external identity has no email")
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Enabled          bool
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// IdentityCasdoor verifies Casdoor-issued tokens. It never creates local
// accounts; callers map the returned email to an existing user.
type IdentityCasdoor struct {
	client *casdoorsdk.Client
	config CasdoorConfig
}

// NewIdentityCasdoor returns a disabled resolver when Casdoor is not configured.
func NewIdentityCasdoor(config CasdoorConfig) repositories.IdentityRepository {
	if !config.Enabled {
		return disabledIdentity{}
	}

	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &IdentityCasdoor{
		client: client,
		config: config,
	}
}

func (i *IdentityCasdoor) Enabled() bool {
	return true
}

func (i *IdentityCasdoor) ResolveToken(ctx context.Context, token string) (*repositories.ExternalIdentity, error) {
	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casdoor token: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.User.Email))
	if email == "" {
		return nil, ErrIdentityNoEmail
	}

	displayName := claims.User.DisplayName
	if displayName == "" {
		displayName = claims.User.Name
	}

	return &repositories.ExternalIdentity{
		Subject:     claims.User.Id,
		Email:       email,
		DisplayName: displayName,
	}, nil
}

type disabledIdentity struct{}

func (disabledIdentity) Enabled() bool {
	return false
}

func (disabledIdentity) ResolveToken(ctx context.Context, token string) (*repositories.ExternalIdentity, error) {
	return nil, ErrIdentityDisabled
}
