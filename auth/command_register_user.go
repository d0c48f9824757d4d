package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// MinPasswordLength is enforced by payload validation
const MinPasswordLength = 6

type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	UseHashid  bool   `json:"-"`
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	e.Role = normalizeRole(e.Role)
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name,
			validation.Required.Error("Name is required"),
		),
		validation.Field(&e.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&e.Password,
			validation.Required.Error("Password must be 6 or more characters"),
			validation.Length(MinPasswordLength, 0).Error("Password must be 6 or more characters"),
		),
		validation.Field(&e.Role,
			validation.In(roleValues()...).Error("Role must be one of admin, supplier, customer, support"),
		),
	)
}

type RegisterUserHandler struct {
	repo     RepositoryManager
	logger   Logger
	activity ActivitySink
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *RegisterUserHandler) WithLogger(l Logger) *RegisterUserHandler {
	h.logger = normalizeLogger(l)
	return h
}

func (h *RegisterUserHandler) WithActivitySink(s ActivitySink) *RegisterUserHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(err, "")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{
		Name:  event.Name,
		Email: event.Email,
		Role:  DefaultRole,
	}

	if role, ok := ParseRole(event.Role); ok {
		user.Role = role
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(normalizeEmail(event.Email)); err == nil {
			user.ID = id
		}
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// pre-check only, the unique index on email is authoritative
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrEmailInUse
		} else if !IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing email")
		}

		created, err := h.repo.Users().RegisterTx(ctx, tx, user, event.Password)
		if err != nil {
			return err
		}
		user = created
		return nil
	})

	if err != nil {
		if goerrors.Is(err, ErrEmailInUse) {
			h.logger.Warn("registration rejected, email in use", "email", event.Email)
			return ErrEmailInUse
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.logger.Info("user registered", "user_id", user.ID.String(), "role", string(user.Role))

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistered,
		UserID:    user.ID.String(),
		Role:      user.Role,
	})

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
