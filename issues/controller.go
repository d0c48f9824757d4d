package issues

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/orders"
)

// OrderLookup resolves the order an issue is raised against
type OrderLookup interface {
	Find(ctx context.Context, id uuid.UUID) (*orders.Order, error)
}

type Controller struct {
	Debug  bool
	Logger auth.Logger
	Repo   Issues
	Orders OrderLookup
}

type ControllerOption func(*Controller) *Controller

func WithLogger(l auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func NewController(repo Issues, orders OrderLookup, opts ...ControllerOption) *Controller {
	c := &Controller{
		Repo:   repo,
		Orders: orders,
		Logger: auth.NewDefaultLogger(),
	}
	for _, opt := range opts {
		c = opt(c)
	}
	if c.Repo == nil || c.Orders == nil {
		panic("Missing dependencies in issues controller...")
	}
	return c
}

// staff roles can read and manage every issue
var staff = auth.NewRoleSet(auth.RoleAdmin, auth.RoleSupport)

// RegisterRoutes mounts the issue endpoints
func RegisterRoutes[T any](app router.Router[T], controller *Controller, protected router.MiddlewareFunc) {
	customer := auth.RequireRoles(auth.RoleCustomer)
	readers := auth.RequireRoles(auth.RoleCustomer, auth.RoleAdmin, auth.RoleSupport)
	editors := auth.RequireRoles(auth.RoleAdmin, auth.RoleSupport)
	admin := auth.RequireRoles(auth.RoleAdmin)

	app.Post("/", controller.Create, protected, customer).
		SetName("issues.create")
	app.Get("/:id/allIssues", controller.ListByUser, protected, readers).
		SetName("issues.list-by-user")
	app.Get("/:id", controller.Get, protected, readers).
		SetName("issues.get")
	app.Put("/:id", controller.Update, protected, editors).
		SetName("issues.update")
	app.Delete("/:id", controller.Delete, protected, admin).
		SetName("issues.delete")
}

// Create opens an issue against one of the caller's orders
func (i *Controller) Create(ctx router.Context) error {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}

	payload := new(CreateIssuePayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	i.debug("create issue", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	orderID := uuid.MustParse(payload.OrderID)
	order, err := i.Orders.Find(ctx.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return orders.ErrOrderNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to fetch issue order")
	}

	if order.UserID != user.ID {
		i.Logger.Warn("issue rejected, order owned by another user", "order_id", orderID.String(), "user_id", user.ID.String())
		return auth.ErrForbidden
	}

	record, err := i.Repo.Insert(ctx.Context(), &Issue{
		Title:       payload.Title,
		Description: payload.Description,
		OrderID:     orderID,
		UserID:      user.ID,
		Status:      StatusOpen,
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create issue")
	}

	i.Logger.Info("issue created", "id", record.ID.String(), "order_id", orderID.String())
	return ctx.JSON(http.StatusCreated, record)
}

func (i *Controller) ListByUser(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return auth.ErrUserNotFound
	}

	if err := canAccess(ctx, userID); err != nil {
		return err
	}

	records, err := i.Repo.ListByUser(ctx.Context(), userID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list issues")
	}
	return ctx.JSON(router.StatusOK, records)
}

func (i *Controller) Get(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrIssueNotFound
	}

	record, err := i.Repo.Find(ctx.Context(), id)
	if err != nil {
		return mapError(err, "failed to fetch issue")
	}

	if err := canAccess(ctx, record.UserID); err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, record)
}

func (i *Controller) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrIssueNotFound
	}

	payload := new(UpdateIssuePayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	i.debug("update issue", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	record, err := i.Repo.Patch(ctx.Context(), id, payload.changes())
	if err != nil {
		return mapError(err, "failed to update issue")
	}

	i.Logger.Info("issue updated", "id", id.String(), "status", string(record.Status))
	return ctx.JSON(router.StatusOK, record)
}

func (i *Controller) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrIssueNotFound
	}

	if err := i.Repo.DeleteByID(ctx.Context(), id); err != nil {
		return mapError(err, "failed to delete issue")
	}

	i.Logger.Info("issue deleted", "id", id.String())
	return ctx.JSON(router.StatusOK, auth.MessageResponse{Message: "Issue deleted successfully"})
}

func canAccess(ctx router.Context, owner uuid.UUID) error {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	if user.IsRole(staff) || user.ID == owner {
		return nil
	}
	return auth.ErrForbidden
}

func mapError(err error, msg string) error {
	if errors.Is(err, ErrIssueNotFound) {
		return ErrIssueNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}

func (i *Controller) debug(action string, payload any) {
	if !i.Debug {
		return
	}
	i.Logger.Debug("issues request", "action", action, "payload", print.MaybePrettyJSON(payload))
}
