package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateUserPayload is used by admins and by users editing themselves.
// Role is ignored on self updates.
type UpdateUserPayload struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

func (p UpdateUserPayload) Validate() error {
	if p.Role != nil {
		role := normalizeRole(*p.Role)
		p.Role = &role
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name,
			validation.NilOrNotEmpty.Error("Name is required"),
		),
		validation.Field(&p.Email,
			validation.NilOrNotEmpty.Error("Please include a valid email"),
			is.Email.Error("Please include a valid email"),
		),
		validation.Field(&p.Role,
			validation.In(roleValues()...).Error("Role must be one of admin, supplier, customer, support"),
		),
	)
}

func (p UpdateUserPayload) changes(allowRole bool) ProfileChanges {
	out := ProfileChanges{
		Name:  p.Name,
		Email: p.Email,
	}
	if allowRole && p.Role != nil {
		if role, ok := ParseRole(*p.Role); ok {
			out.Role = &role
		}
	}
	return out
}

type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewUsersController(repo RepositoryManager, logger Logger) *UsersController {
	return &UsersController{
		Repo:   repo,
		Logger: normalizeLogger(logger),
	}
}

// RegisterUserRoutes mounts the user management endpoints
func RegisterUserRoutes[T any](app router.Router[T], controller *UsersController, protected router.MiddlewareFunc) {
	admin := RequireRoles(RoleAdmin)

	app.Get("/", controller.List, protected, admin).
		SetName("users.list")
	app.Put("/me/update", controller.UpdateSelf, protected).
		SetName("users.update-self")
	app.Put("/:id", controller.Update, protected, admin).
		SetName("users.update")
	app.Delete("/:id", controller.Delete, protected, admin).
		SetName("users.delete")
}

func (u *UsersController) List(ctx router.Context) error {
	records, err := u.Repo.Users().ListAll(ctx.Context())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	out := make([]Profile, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToProfile())
	}

	u.Logger.Info("fetched list of all users", "count", len(out))
	return ctx.JSON(router.StatusOK, out)
}

func (u *UsersController) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrUserNotFound
	}
	return u.update(ctx, id, true)
}

func (u *UsersController) UpdateSelf(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return ErrUnauthorized
	}
	return u.update(ctx, user.ID, false)
}

func (u *UsersController) update(ctx router.Context, id uuid.UUID, allowRole bool) error {
	payload := new(UpdateUserPayload)
	if err := BindPayload(ctx, payload); err != nil {
		return err
	}

	if err := payload.Validate(); err != nil {
		return NewValidationError(err, "")
	}

	var updated *User
	err := u.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		record, err := u.Repo.Users().UpdateProfileTx(txCtx, tx, id, payload.changes(allowRole))
		if err != nil {
			return err
		}
		updated = record
		return nil
	})

	if err != nil {
		switch {
		case goerrors.Is(err, ErrEmailInUse):
			return ErrEmailInUse
		case IsNotFound(err):
			u.Logger.Warn("update user failed, user not found", "id", id.String())
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	u.Logger.Info("user details updated", "id", id.String())
	return ctx.JSON(router.StatusOK, updated.ToProfile())
}

func (u *UsersController) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrUserNotFound
	}

	if err := u.Repo.Users().DeleteByID(ctx.Context(), id); err != nil {
		if IsNotFound(err) {
			u.Logger.Warn("delete user failed, user not found", "id", id.String())
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	u.Logger.Info("user deleted", "id", id.String())
	return ctx.JSON(router.StatusOK, MessageResponse{Message: "User deleted"})
}
