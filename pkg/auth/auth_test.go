package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorRoundTrip(t *testing.T) {
	v := NewValidator("secret")

	token, err := v.Sign(7, "staff", time.Hour)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "staff", claims.Role)
}

func TestValidatorRejects(t *testing.T) {
	v := NewValidator("secret")
	other, err := NewValidator("other").Sign(7, "", time.Hour)
	require.NoError(t, err)
	expired, err := v.Sign(7, "", -time.Minute)
	require.NoError(t, err)
	anonymous, err := v.Sign(0, "", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  other,
		"expired":       expired,
		"missing actor": anonymous,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	v := NewValidator("secret")
	token, err := v.Sign(42, "", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	_, err = v.Authenticate(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Token "+token)
	_, err = v.Authenticate(r)
	assert.ErrorIs(t, err, ErrInvalidToken)

	r.Header.Set("Authorization", "Bearer "+token)
	id, err := v.Authenticate(r)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestAuthenticateWithoutSecretUsesHeader(t *testing.T) {
	v := NewValidator("")
	r := httptest.NewRequest("GET", "/", nil)

	id, err := v.Authenticate(r)
	require.NoError(t, err)
	assert.Zero(t, id)

	r.Header.Set(ActorHeader, "5")
	id, err = v.Authenticate(r)
	require.NoError(t, err)
	assert.EqualValues(t, 5, id)
}

func TestActorContext(t *testing.T) {
	assert.Zero(t, ActorFrom(context.Background()))
	assert.EqualValues(t, 9, ActorFrom(WithActor(context.Background(), 9)))
}
