package auth_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/auth"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	clk := newClock()
	ts := auth.NewTokenService([]byte("secret"), time.Hour, "storefront").
		WithLogger(nopLogger{}).
		WithClock(clk.Now)

	id := uuid.NewString()
	token, err := ts.Issue(id, auth.RoleSupplier)
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, id, claims.UserID())
	assert.Equal(t, auth.RoleSupplier, claims.Role())
	assert.Equal(t, "storefront", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clk.Now().Add(time.Hour).Unix(), claims.Expires().Unix())
}

func TestTokenService_Expired(t *testing.T) {
	clk := newClock()
	ts := auth.NewTokenService([]byte("secret"), time.Minute, "storefront").WithClock(clk.Now)

	token, err := ts.Issue(uuid.NewString(), auth.RoleCustomer)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_Rejects(t *testing.T) {
	ts := auth.NewTokenService([]byte("secret"), time.Hour, "storefront")
	other := auth.NewTokenService([]byte("other"), time.Hour, "storefront")
	foreign := auth.NewTokenService([]byte("secret"), time.Hour, "elsewhere")

	signedByOther, err := other.Issue(uuid.NewString(), auth.RoleAdmin)
	require.NoError(t, err)

	wrongIssuer, err := foreign.Issue(uuid.NewString(), auth.RoleAdmin)
	require.NoError(t, err)

	noSubject, err := ts.Issue("", auth.RoleAdmin)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"wrong key":    signedByOther,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Validate(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, auth.ErrTokenMalformed))
		})
	}
}

func TestTokenService_MissingKey(t *testing.T) {
	ts := auth.NewTokenService(nil, time.Hour, "storefront")

	_, err := ts.Issue(uuid.NewString(), auth.RoleCustomer)
	assert.Error(t, err)
}
