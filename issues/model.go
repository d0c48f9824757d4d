package issues

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
}

func statusValues() []any {
	out := []any{}
	for _, s := range Statuses() {
		out = append(out, string(s))
	}
	return out
}

// Issue is a support ticket raised against an order
type Issue struct {
	bun.BaseModel `bun:"table:issues,alias:iss"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Description   string     `bun:"description,notnull" json:"description"`
	OrderID       uuid.UUID  `bun:"order_id,notnull,type:uuid" json:"order_id"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Status        Status     `bun:"status,notnull" json:"status"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}
