package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/auth"
)

func TestAuthenticator_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createUser(t, "Ann", "ann@example.com", "secret1", auth.RoleSupplier)

	token, user, err := f.auther.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)
	assert.NotNil(t, user.LoggedInAt)

	claims, err := f.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID())
	assert.Equal(t, auth.RoleSupplier, claims.Role())
}

func TestAuthenticator_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "Ann", "ann@example.com", "secret1", auth.RoleCustomer)

	sink := new(MockActivitySink)
	sink.On("Record", mock.Anything, mock.MatchedBy(func(e auth.ActivityEvent) bool {
		return e.EventType == auth.ActivityEventLoginFailure
	})).Return(nil).Twice()
	f.auther.WithActivitySink(sink)

	_, _, err := f.auther.Login(ctx, "ann@example.com", "wrong-password")
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))

	_, _, err = f.auther.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials), "unknown email is indistinguishable")

	sink.AssertExpectations(t)

	_, _, err = f.auther.Login(ctx, "", "")
	var rich *errors.Error
	require.True(t, errors.As(err, &rich))
	assert.Equal(t, errors.CategoryValidation, rich.Category)
	assert.Len(t, rich.Metadata["errors"], 2)
}

func TestAuthenticator_UserFromToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.createUser(t, "Ann", "ann@example.com", "secret1", auth.RoleCustomer)

	token, err := f.auther.IssueToken(ann)
	require.NoError(t, err)

	user, claims, err := f.auther.UserFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, user.ID)
	assert.Equal(t, ann.ID.String(), claims.UserID())

	require.NoError(t, f.repo.Users().DeleteByID(ctx, ann.ID))

	_, _, err = f.auther.UserFromToken(ctx, token)
	assert.True(t, errors.Is(err, auth.ErrUnauthorized))

	notUUID, err := f.tokens.Issue("not-a-uuid", auth.RoleAdmin)
	require.NoError(t, err)
	_, _, err = f.auther.UserFromToken(ctx, notUUID)
	assert.True(t, errors.Is(err, auth.ErrTokenMalformed))

	stranger, err := f.tokens.Issue(uuid.NewString(), auth.RoleAdmin)
	require.NoError(t, err)
	_, _, err = f.auther.UserFromToken(ctx, stranger)
	assert.True(t, errors.Is(err, auth.ErrUnauthorized))

	_, err = f.auther.IssueToken(nil)
	assert.True(t, errors.Is(err, auth.ErrUserNotFound))
}
