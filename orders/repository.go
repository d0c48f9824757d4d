package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Orders interface {
	repository.Repository[*Order]

	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	Insert(ctx context.Context, record *Order) (*Order, error)
	Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Order, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Changes are partial order updates, nil fields are skipped
type Changes struct {
	Products   *[]LineItem
	TotalPrice *float64
}

type orders struct {
	repository.Repository[*Order]
	db  *bun.DB
	now func() time.Time
}

func NewOrdersRepository(db *bun.DB) Orders {
	repo := repository.NewRepository[*Order](db, repository.ModelHandlers[*Order]{
		NewRecord: func() *Order { return &Order{} },
		GetID: func(o *Order) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *Order, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &orders{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (o *orders) Find(ctx context.Context, id uuid.UUID) (*Order, error) {
	record, err := o.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return record, nil
}

func (o *orders) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	records := []*Order{}
	err := o.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return records, nil
}

func (o *orders) Insert(ctx context.Context, record *Order) (*Order, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Products == nil {
		record.Products = []LineItem{}
	}
	now := o.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := o.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (o *orders) Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Order, error) {
	var out *Order
	err := o.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Order{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", id).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrOrderNotFound
			}
			return err
		}

		if changes.Products != nil {
			record.Products = *changes.Products
		}
		if changes.TotalPrice != nil {
			record.TotalPrice = *changes.TotalPrice
		}
		now := o.now()
		record.UpdatedAt = &now

		_, err = tx.NewUpdate().
			Model(record).
			Column("products", "total_price", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}

		out = record
		return nil
	})
	return out, err
}

func (o *orders) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := o.db.NewDelete().
		Model((*Order)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
