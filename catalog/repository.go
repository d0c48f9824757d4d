package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Products stores catalog entries
type Products interface {
	repository.Repository[*Product]

	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Insert(ctx context.Context, record *Product) (*Product, error)
	Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Product, error)
	Toggle(ctx context.Context, id uuid.UUID) (*Product, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Changes are partial product updates, nil fields are skipped
type Changes struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Category    *string
	IsActive    *bool
}

type products struct {
	repository.Repository[*Product]
	db  *bun.DB
	now func() time.Time
}

func NewProductsRepository(db *bun.DB) Products {
	repo := repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(p *Product) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Product, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &products{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (p *products) Find(ctx context.Context, id uuid.UUID) (*Product, error) {
	record, err := p.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return record, nil
}

func (p *products) findTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Product, error) {
	record := &Product{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return record, nil
}

func (p *products) FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	out := make(map[uuid.UUID]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	records := []*Product{}
	err := p.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	for _, r := range records {
		out[r.ID] = r
	}
	return out, nil
}

func (p *products) ListAll(ctx context.Context) ([]*Product, error) {
	records := []*Product{}
	err := p.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return records, nil
}

func (p *products) Insert(ctx context.Context, record *Product) (*Product, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := p.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := p.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *products) Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Product, error) {
	var out *Product
	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*Product)(nil)).
			Set("updated_at = ?", p.now()).
			Where("id = ?", id)

		if changes.Name != nil {
			q = q.Set("name = ?", *changes.Name)
		}
		if changes.Description != nil {
			q = q.Set("description = ?", *changes.Description)
		}
		if changes.Price != nil {
			q = q.Set("price = ?", *changes.Price)
		}
		if changes.Stock != nil {
			q = q.Set("stock = ?", *changes.Stock)
		}
		if changes.Category != nil {
			q = q.Set("category = ?", *changes.Category)
		}
		if changes.IsActive != nil {
			q = q.Set("is_active = ?", *changes.IsActive)
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrProductNotFound
		}

		out, err = p.findTx(ctx, tx, id)
		return err
	})
	return out, err
}

func (p *products) Toggle(ctx context.Context, id uuid.UUID) (*Product, error) {
	var out *Product
	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := p.findTx(ctx, tx, id)
		if err != nil {
			return err
		}

		record.IsActive = !record.IsActive
		now := p.now()
		record.UpdatedAt = &now

		_, err = tx.NewUpdate().
			Model(record).
			Column("is_active", "updated_at").
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

func (p *products) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := p.db.NewDelete().
		Model((*Product)(nil)).
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
		return ErrProductNotFound
	}
	return nil
}
