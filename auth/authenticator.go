package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// Authenticator verifies credentials and resolves session tokens back into users
type Authenticator struct {
	users    Users
	hasher   PasswordHasher
	tokens   *TokenService
	logger   Logger
	activity ActivitySink
}

func NewAuthenticator(users Users, hasher PasswordHasher, tokens *TokenService) *Authenticator {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultBcryptCost)
	}
	return &Authenticator{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (a *Authenticator) WithLogger(l Logger) *Authenticator {
	a.logger = normalizeLogger(l)
	return a
}

func (a *Authenticator) WithActivitySink(s ActivitySink) *Authenticator {
	a.activity = normalizeActivitySink(s)
	return a
}

// TokenService returns the issuer used for logins
func (a *Authenticator) TokenService() *TokenService {
	return a.tokens
}

// Login returns a signed token for valid credentials. Unknown emails and
// wrong passwords both return ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *User, error) {
	req := LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return "", nil, NewValidationError(err, "")
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			a.loginFailed(ctx, "", email)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.loginFailed(ctx, user.ID.String(), email)
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user.ID.String(), user.Role)
	if err != nil {
		return "", nil, err
	}

	if err := a.users.TrackSuccessfulLogin(ctx, user); err != nil {
		a.logger.Error("failed to track successful login", "error", err)
	}

	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Role:      user.Role,
	})

	return token, user, nil
}

func (a *Authenticator) loginFailed(ctx context.Context, userID, email string) {
	a.logger.Warn("login failed", "email", email)
	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		UserID:    userID,
		Metadata: map[string]any{
			"email": email,
		},
	})
}

// IssueToken signs a session token for user
func (a *Authenticator) IssueToken(user *User) (string, error) {
	if user == nil {
		return "", ErrUserNotFound
	}
	return a.tokens.Issue(user.ID.String(), user.Role)
}

// UserFromToken verifies the token and loads the user it names
func (a *Authenticator) UserFromToken(ctx context.Context, token string) (*User, *JWTClaims, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, nil, ErrTokenMalformed
	}

	user, err := a.users.GetByID(ctx, id.String())
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve user from token")
	}

	return user, claims, nil
}
