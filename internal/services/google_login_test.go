package services

import (
	"context"
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/identity"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func googleIdentity() models.ExternalIdentity {
	return models.ExternalIdentity{Subject: "g-123", Email: "Ada@Example.com", Name: "Ada Lovelace", EmailVerified: true}
}

func TestGoogleLoginCreatesVerifiedUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tokens := newTestTokens()
	provider := &fakeProvider{identity: googleIdentity()}
	svc := NewGoogleLoginService(store, provider, tokens, testSessionTTL, NewEventService(store))

	res, err := svc.Login(ctx, "access-token")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
	assert.True(t, res.User.Verified)
	require.NotNil(t, res.User.GoogleID)
	assert.Equal(t, "g-123", *res.User.GoogleID)
	assert.NotEmpty(t, res.User.PasswordHash)

	claims, err := tokens.Verify(res.Token, auth.PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID())
	assert.NotEqual(t, "access-token", res.Token)

	again, err := svc.Login(ctx, "access-token")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestGoogleLoginLinksExistingUserOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	tokens := newTestTokens()
	events := NewEventService(store)
	users := NewUserService(store, tokens, testSessionTTL, events, nil)
	signup, err := users.Signup(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	svc := NewGoogleLoginService(store, &fakeProvider{identity: googleIdentity()}, tokens, testSessionTTL, events)

	first, err := svc.Login(ctx, "t")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "t")
	require.NoError(t, err)

	assert.Equal(t, signup.User.ID, first.User.ID)
	assert.Equal(t, signup.User.ID, second.User.ID)
	require.NotNil(t, second.User.GoogleID)
	assert.Equal(t, "g-123", *second.User.GoogleID)
	assert.Equal(t, "Ada", second.User.Name)

	// Password login keeps working for a linked account.
	_, err = users.Login(ctx, "ada@example.com", "secret1")
	assert.NoError(t, err)

	linked := 0
	evs, err := store.ListEvents(ctx, signup.User.ID, 0)
	require.NoError(t, err)
	for _, e := range evs {
		if e.Type == EventGoogleLinked {
			linked++
		}
	}
	assert.Equal(t, 1, linked)
}

func TestGoogleLoginExchangeFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	provider := &fakeProvider{err: identity.ErrExchange}
	svc := NewGoogleLoginService(store, provider, newTestTokens(), testSessionTTL, NewEventService(store))

	_, err := svc.Login(ctx, "bad-token")
	assert.ErrorIs(t, err, ErrIdentityExchange)

	_, err = store.UserByEmail(ctx, "ada@example.com")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, provider.calls)
}
