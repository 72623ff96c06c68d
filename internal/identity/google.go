// Package identity exchanges third-party access tokens for verified profiles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrExchange is returned when the provider does not vouch for the token.
var ErrExchange = errors.New("identity exchange failed")

// Provider resolves an external access token into an identity.
type Provider interface {
	Exchange(ctx context.Context, accessToken string) (models.ExternalIdentity, error)
}

// Google verifies OAuth access tokens issued by Google.
type Google struct {
	ClientID string
	service  *oauth2api.Service
}

var _ Provider = (*Google)(nil)

// NewGoogle creates a provider whose calls are bounded by timeout. When
// clientID is set, tokens minted for other clients are rejected. Extra
// options are applied after the HTTP client, e.g. to change the endpoint.
func NewGoogle(ctx context.Context, clientID string, timeout time.Duration, opts ...option.ClientOption) (*Google, error) {
	opts = append([]option.ClientOption{
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)

	service, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity.NewGoogle: %w", err)
	}
	return &Google{ClientID: clientID, service: service}, nil
}

// Exchange checks the token's audience, then fetches the profile behind it.
func (g *Google) Exchange(ctx context.Context, accessToken string) (models.ExternalIdentity, error) {
	const op = "identity.Google.Exchange"

	if accessToken == "" {
		return models.ExternalIdentity{}, fmt.Errorf("%s: empty token: %w", op, ErrExchange)
	}

	if g.ClientID != "" {
		info, err := g.service.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
		if err != nil {
			return models.ExternalIdentity{}, fmt.Errorf("%s: tokeninfo: %w", op, errors.Join(ErrExchange, err))
		}
		if info.Audience != g.ClientID && info.IssuedTo != g.ClientID {
			return models.ExternalIdentity{}, fmt.Errorf("%s: token issued for another client: %w", op, ErrExchange)
		}
	}

	call := g.service.Userinfo.Get().Context(ctx)
	call.Header().Set("Authorization", "Bearer "+accessToken)
	profile, err := call.Do()
	if err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("%s: userinfo: %w", op, errors.Join(ErrExchange, err))
	}
	if profile.Id == "" || profile.Email == "" {
		return models.ExternalIdentity{}, fmt.Errorf("%s: incomplete profile: %w", op, ErrExchange)
	}
	if profile.VerifiedEmail == nil || !*profile.VerifiedEmail {
		return models.ExternalIdentity{}, fmt.Errorf("%s: email not verified: %w", op, ErrExchange)
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}
	return models.ExternalIdentity{
		Subject:       profile.Id,
		Email:         profile.Email,
		Name:          name,
		EmailVerified: true,
	}, nil
}
