package auth

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const (
	// ResetMailSubject is the subject line of the reset email
	ResetMailSubject = "Password Reset Token"
	// DefaultMailTimeout bounds a single delivery attempt
	DefaultMailTimeout = 10 * time.Second
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
	// ResetURL builds the link delivered to the user from the cleartext token
	ResetURL   func(token string) string `json:"-"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (p InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email,
			validation.Required.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
	)
}

type InitializePasswordResetResponse struct {
	UserID    string
	ExpiresAt time.Time
	Success   bool
}

type InitializePasswordResetHandler struct {
	repo        RepositoryManager
	tokens      *ResetTokenManager
	mailer      Mailer
	mailTimeout time.Duration
	logger      Logger
	activity    ActivitySink
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens *ResetTokenManager, mailer Mailer) *InitializePasswordResetHandler {
	if tokens == nil {
		tokens = NewResetTokenManager(DefaultResetTokenTTL)
	}
	return &InitializePasswordResetHandler{
		repo:        repo,
		tokens:      tokens,
		mailer:      mailer,
		mailTimeout: DefaultMailTimeout,
		logger:      defLogger{},
		activity:    noopActivitySink{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(l Logger) *InitializePasswordResetHandler {
	h.logger = normalizeLogger(l)
	return h
}

func (h *InitializePasswordResetHandler) WithActivitySink(s ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *InitializePasswordResetHandler) WithMailTimeout(d time.Duration) *InitializePasswordResetHandler {
	if d > 0 {
		h.mailTimeout = d
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(err, "")
	}

	if h.mailer == nil {
		return goerrors.New("password reset mailer is not configured", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if IsNotFound(err) {
			h.logger.Warn("password reset requested for unknown email", "email", event.Email)
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.tokens.Issue()
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().SetResetTokenTx(ctx, tx, user.ID, token.Hash, token.ExpiresAt)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset token")
	}

	link := token.Plain
	if event.ResetURL != nil {
		link = event.ResetURL(token.Plain)
	}

	if err := h.deliver(ctx, user, link); err != nil {
		h.logger.Error("password reset email could not be sent",
			"user_id", user.ID.String(),
			"error", err,
		)

		if cerr := h.rollback(ctx, user); cerr != nil {
			h.logger.Error("failed to clear reset token after delivery failure",
				"user_id", user.ID.String(),
				"error", cerr,
			)
			return goerrors.Wrap(cerr, goerrors.CategoryInternal, "failed to clear reset token")
		}

		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventPasswordResetFailed,
			UserID:    user.ID.String(),
			Role:      user.Role,
		})

		return ErrDeliveryFailed
	}

	h.logger.Info("password reset email sent", "user_id", user.ID.String())

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetRequested,
		UserID:    user.ID.String(),
		Role:      user.Role,
		Metadata: map[string]any{
			"expires_at": token.ExpiresAt,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			UserID:    user.ID.String(),
			ExpiresAt: token.ExpiresAt,
			Success:   true,
		})
	}

	return nil
}

func (h *InitializePasswordResetHandler) deliver(ctx context.Context, user *User, link string) error {
	ctx, cancel := context.WithTimeout(ctx, h.mailTimeout)
	defer cancel()

	msg := MailMessage{
		To:      user.Email,
		Subject: ResetMailSubject,
		Body:    ResetMailBody(link),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- h.mailer.Send(ctx, msg)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "mail delivery timed out")
	}
}

// rollback runs detached from the request context so a timeout does not
// leave a live token behind.
func (h *InitializePasswordResetHandler) rollback(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
	defer cancel()

	return h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().ClearResetTokenTx(ctx, tx, user.ID)
	})
}

// ResetMailBody renders the reset email body for the given link
func ResetMailBody(link string) string {
	return fmt.Sprintf(
		"You are receiving this email because you requested a password reset. "+
			"Please visit the below link to change password: \n\n %s",
		link,
	)
}
