package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-storefront/catalog"
)

// LineItem references a catalog product and the ordered quantity
type LineItem struct {
	Product  uuid.UUID `json:"product"`
	Quantity int       `json:"quantity"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:ord"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Products      []LineItem `bun:"products,type:json" json:"products"`
	TotalPrice    float64    `bun:"total_price,notnull" json:"total_price"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProductIDs returns the distinct product ids referenced by the order
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Products))
	out := make([]uuid.UUID, 0, len(o.Products))
	for _, item := range o.Products {
		if _, ok := seen[item.Product]; ok {
			continue
		}
		seen[item.Product] = struct{}{}
		out = append(out, item.Product)
	}
	return out
}

// PopulatedItem is a line item with its product expanded.
// Product is nil when the product was deleted after the order was placed.
type PopulatedItem struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// OrderView is the order representation with products populated
type OrderView struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Products   []PopulatedItem `json:"products"`
	TotalPrice float64         `json:"total_price"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// Populate expands the order line items using the given products
func Populate(o *Order, products map[uuid.UUID]*catalog.Product) OrderView {
	items := make([]PopulatedItem, 0, len(o.Products))
	for _, item := range o.Products {
		items = append(items, PopulatedItem{
			Product:  products[item.Product],
			Quantity: item.Quantity,
		})
	}

	return OrderView{
		ID:         o.ID,
		UserID:     o.UserID,
		Products:   items,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
