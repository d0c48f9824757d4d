package orders

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/catalog"
)

// ProductLookup resolves the products referenced by orders
type ProductLookup interface {
	FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
}

type Controller struct {
	Debug    bool
	Logger   auth.Logger
	Repo     Orders
	Products ProductLookup
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

func NewController(repo Orders, products ProductLookup, opts ...ControllerOption) *Controller {
	c := &Controller{
		Repo:     repo,
		Products: products,
		Logger:   auth.NewDefaultLogger(),
	}
	for _, opt := range opts {
		c = opt(c)
	}
	if c.Repo == nil || c.Products == nil {
		panic("Missing dependencies in orders controller...")
	}
	return c
}

// RegisterRoutes mounts the order endpoints
func RegisterRoutes[T any](app router.Router[T], controller *Controller, protected router.MiddlewareFunc) {
	readers := auth.RequireRoles(auth.RoleCustomer, auth.RoleAdmin)
	admin := auth.RequireRoles(auth.RoleAdmin)

	app.Post("/", controller.Create, protected).
		SetName("orders.create")
	app.Get("/:id/allOrders", controller.ListByUser, protected, readers).
		SetName("orders.list-by-user")
	app.Get("/:id", controller.Get, protected, readers).
		SetName("orders.get")
	app.Put("/:id", controller.Update, protected, admin).
		SetName("orders.update")
	app.Delete("/:id", controller.Delete, protected, admin).
		SetName("orders.delete")
}

func (o *Controller) Create(ctx router.Context) error {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}

	payload := new(CreateOrderPayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	o.debug("create order", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	record := &Order{
		UserID:     user.ID,
		Products:   lineItems(payload.Products),
		TotalPrice: *payload.TotalPrice,
	}

	if err := o.ensureProducts(ctx.Context(), record); err != nil {
		return err
	}

	record, err := o.Repo.Insert(ctx.Context(), record)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create order")
	}

	o.Logger.Info("order created", "id", record.ID.String(), "user_id", user.ID.String())
	return ctx.JSON(http.StatusCreated, record)
}

// ListByUser returns the orders placed by the user in :id.
// Customers can only list their own orders.
func (o *Controller) ListByUser(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return auth.ErrUserNotFound
	}

	if err := canAccess(ctx, userID); err != nil {
		return err
	}

	records, err := o.Repo.ListByUser(ctx.Context(), userID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list orders")
	}
	return ctx.JSON(router.StatusOK, records)
}

// Get returns the order with its products populated
func (o *Controller) Get(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrOrderNotFound
	}

	record, err := o.Repo.Find(ctx.Context(), id)
	if err != nil {
		return mapError(err, "failed to fetch order")
	}

	if err := canAccess(ctx, record.UserID); err != nil {
		return err
	}

	products, err := o.Products.FindMany(ctx.Context(), record.ProductIDs())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to populate order products")
	}

	return ctx.JSON(router.StatusOK, Populate(record, products))
}

func (o *Controller) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrOrderNotFound
	}

	payload := new(UpdateOrderPayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	o.debug("update order", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	changes := payload.changes()
	if changes.Products != nil {
		if err := o.ensureProducts(ctx.Context(), &Order{Products: *changes.Products}); err != nil {
			return err
		}
	}

	record, err := o.Repo.Patch(ctx.Context(), id, changes)
	if err != nil {
		return mapError(err, "failed to update order")
	}

	o.Logger.Info("order updated", "id", id.String())
	return ctx.JSON(router.StatusOK, record)
}

func (o *Controller) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrOrderNotFound
	}

	if err := o.Repo.DeleteByID(ctx.Context(), id); err != nil {
		return mapError(err, "failed to delete order")
	}

	o.Logger.Info("order deleted", "id", id.String())
	return ctx.JSON(router.StatusOK, auth.MessageResponse{Message: "Order deleted successfully"})
}

// ensureProducts rejects orders that reference unknown products
func (o *Controller) ensureProducts(ctx context.Context, record *Order) error {
	ids := record.ProductIDs()
	found, err := o.Products.FindMany(ctx, ids)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to load order products")
	}

	missing := []auth.FieldError{}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, auth.FieldError{
				Field:   "products",
				Message: "Product " + id.String() + " not found",
			})
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return errors.New("Validation failed", errors.CategoryValidation).
		WithTextCode(auth.TextCodeValidationFailed).
		WithCode(http.StatusUnprocessableEntity).
		WithMetadata(map[string]any{"errors": missing})
}

// canAccess lets admins through and limits everyone else to their own records
func canAccess(ctx router.Context, owner uuid.UUID) error {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	if user.Role == auth.RoleAdmin || user.ID == owner {
		return nil
	}
	return auth.ErrForbidden
}

func mapError(err error, msg string) error {
	if errors.Is(err, ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}

func (o *Controller) debug(action string, payload any) {
	if !o.Debug {
		return
	}
	o.Logger.Debug("orders request", "action", action, "payload", print.MaybePrettyJSON(payload))
}
