package orders

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

type LineItemPayload struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

func (l LineItemPayload) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Product,
			validation.Required.Error("Product is required"),
			validation.By(isUUID),
		),
		validation.Field(&l.Quantity,
			validation.Required.Error("Quantity is required"),
			validation.Min(1).Error("Quantity must be at least 1"),
		),
	)
}

// CreateOrderPayload is the body of POST /orders
type CreateOrderPayload struct {
	Products   []LineItemPayload `json:"products"`
	TotalPrice *float64          `json:"total_price"`
}

func (p CreateOrderPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Products,
			validation.Required.Error("Products are required"),
		),
		validation.Field(&p.TotalPrice,
			validation.NotNil.Error("Total price is required"),
			validation.Min(0.0).Error("Total price must be a positive number"),
		),
	)
}

// UpdateOrderPayload is the body of PUT /orders/:id, every field is optional
type UpdateOrderPayload struct {
	Products   *[]LineItemPayload `json:"products"`
	TotalPrice *float64           `json:"total_price"`
}

func (p UpdateOrderPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Products,
			validation.NilOrNotEmpty.Error("Products are required"),
		),
		validation.Field(&p.TotalPrice,
			validation.Min(0.0).Error("Total price must be a positive number"),
		),
	)
}

func (p UpdateOrderPayload) changes() Changes {
	out := Changes{TotalPrice: p.TotalPrice}
	if p.Products != nil {
		items := lineItems(*p.Products)
		out.Products = &items
	}
	return out
}

// lineItems assumes the payload has been validated
func lineItems(in []LineItemPayload) []LineItem {
	out := make([]LineItem, 0, len(in))
	for _, item := range in {
		id, _ := uuid.Parse(item.Product)
		out = append(out, LineItem{Product: id, Quantity: item.Quantity})
	}
	return out
}

func isUUID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("Product must be a valid id")
	}
	return nil
}
