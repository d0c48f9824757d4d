package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Product is the catalog model
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Description   string     `bun:"description,notnull" json:"description"`
	Price         float64    `bun:"price,notnull" json:"price"`
	Stock         int        `bun:"stock,notnull" json:"stock"`
	Category      string     `bun:"category,notnull" json:"category"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	CreatedBy     uuid.UUID  `bun:"created_by,type:uuid" json:"created_by"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}
