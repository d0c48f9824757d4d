package catalog

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-storefront/auth"
)

type Controller struct {
	Debug  bool
	Logger auth.Logger
	Repo   Products
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

func NewController(repo Products, opts ...ControllerOption) *Controller {
	c := &Controller{
		Repo:   repo,
		Logger: auth.NewDefaultLogger(),
	}
	for _, opt := range opts {
		c = opt(c)
	}
	if c.Repo == nil {
		panic("Missing products repository in catalog controller...")
	}
	return c
}

// RegisterRoutes mounts the product endpoints. Reads are public and a
// single product can also be fetched with POST /:id.
func RegisterRoutes[T any](app router.Router[T], controller *Controller, protected router.MiddlewareFunc) {
	editors := auth.RequireRoles(auth.RoleAdmin, auth.RoleSupplier)

	app.Get("/", controller.List).SetName("products.list")
	app.Get("/:id", controller.Get).SetName("products.get")
	app.Post("/:id", controller.Get).SetName("products.get.post")
	app.Post("/", controller.Create, protected, editors).SetName("products.create")
	app.Put("/:id", controller.Update, protected, editors).SetName("products.update")
	app.Delete("/:id", controller.Delete, protected, editors).SetName("products.delete")
	app.Patch("/:id/toggle", controller.Toggle, protected, editors).SetName("products.toggle")
}

func (p *Controller) Create(ctx router.Context) error {
	payload := new(CreateProductPayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	p.debug("create product", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	record := payload.record()
	if user, ok := auth.CurrentUser(ctx); ok {
		record.CreatedBy = user.ID
	}

	record, err := p.Repo.Insert(ctx.Context(), record)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create product")
	}

	p.Logger.Info("product created", "id", record.ID.String(), "created_by", record.CreatedBy.String())
	return ctx.JSON(http.StatusCreated, record)
}

func (p *Controller) List(ctx router.Context) error {
	records, err := p.Repo.ListAll(ctx.Context())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list products")
	}
	return ctx.JSON(router.StatusOK, records)
}

func (p *Controller) Get(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrProductNotFound
	}

	record, err := p.Repo.Find(ctx.Context(), id)
	if err != nil {
		return p.mapError(err, "failed to fetch product")
	}
	return ctx.JSON(router.StatusOK, record)
}

func (p *Controller) Update(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrProductNotFound
	}

	payload := new(UpdateProductPayload)
	if err := auth.BindPayload(ctx, payload); err != nil {
		return err
	}

	p.debug("update product", payload)

	if err := payload.Validate(); err != nil {
		return auth.NewValidationError(err, "")
	}

	record, err := p.Repo.Patch(ctx.Context(), id, payload.changes())
	if err != nil {
		return p.mapError(err, "failed to update product")
	}

	p.Logger.Info("product updated", "id", id.String())
	return ctx.JSON(router.StatusOK, record)
}

func (p *Controller) Delete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrProductNotFound
	}

	if err := p.Repo.DeleteByID(ctx.Context(), id); err != nil {
		return p.mapError(err, "failed to delete product")
	}

	p.Logger.Info("product deleted", "id", id.String())
	return ctx.JSON(router.StatusOK, auth.MessageResponse{Message: "Product deleted successfully"})
}

// Toggle flips the product active flag
func (p *Controller) Toggle(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ErrProductNotFound
	}

	record, err := p.Repo.Toggle(ctx.Context(), id)
	if err != nil {
		return p.mapError(err, "failed to toggle product")
	}

	p.Logger.Info("product toggled", "id", id.String(), "is_active", record.IsActive)
	return ctx.JSON(router.StatusOK, record)
}

func (p *Controller) mapError(err error, msg string) error {
	if errors.Is(err, ErrProductNotFound) {
		return ErrProductNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}

func (p *Controller) debug(action string, payload any) {
	if !p.Debug {
		return
	}
	p.Logger.Debug("catalog request", "action", action, "payload", print.MaybePrettyJSON(payload))
}
