package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"-"`
	Password   string `json:"password"`
	OnResponse func(user *User)
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset.finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password,
			validation.Required.Error("Password must be 6 or more characters"),
			validation.Length(MinPasswordLength, 0).Error("Password must be 6 or more characters"),
		),
	)
}

type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   *ResetTokenManager
	logger   Logger
	activity ActivitySink
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens *ResetTokenManager) *FinalizePasswordResetHandler {
	if tokens == nil {
		tokens = NewResetTokenManager(DefaultResetTokenTTL)
	}
	return &FinalizePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(l Logger) *FinalizePasswordResetHandler {
	h.logger = normalizeLogger(l)
	return h
}

func (h *FinalizePasswordResetHandler) WithActivitySink(s ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(err, "")
	}

	if event.Token == "" {
		return ErrInvalidOrExpiredToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		digest := HashResetToken(event.Token)

		found, err := h.repo.Users().GetByResetTokenTx(ctx, tx, digest)
		if err != nil {
			if IsNotFound(err) {
				return ErrInvalidOrExpiredToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
		}

		if !found.HasResetToken() ||
			!h.tokens.Redeem(event.Token, *found.ResetPasswordToken, *found.ResetPasswordExpire, h.tokens.Now()) {
			return ErrInvalidOrExpiredToken
		}

		if err := h.repo.Users().UpdatePasswordTx(ctx, tx, found.ID, event.Password); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		if err := h.repo.Users().ClearResetTokenTx(ctx, tx, found.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear reset token")
		}

		found.ResetPasswordToken = nil
		found.ResetPasswordExpire = nil
		user = found
		return nil
	})

	if err != nil {
		if goerrors.Is(err, ErrInvalidOrExpiredToken) {
			h.logger.Warn("password reset rejected, invalid or expired token")
			return ErrInvalidOrExpiredToken
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	h.logger.Info("password reset completed", "user_id", user.ID.String())

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		UserID:    user.ID.String(),
		Role:      user.Role,
	})

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
