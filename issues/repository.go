package issues

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Issues interface {
	repository.Repository[*Issue]

	Find(ctx context.Context, id uuid.UUID) (*Issue, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Issue, error)
	Insert(ctx context.Context, record *Issue) (*Issue, error)
	Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Issue, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type Changes struct {
	Title       *string
	Description *string
	Status      *Status
}

type issues struct {
	repository.Repository[*Issue]
	db  *bun.DB
	now func() time.Time
}

func NewIssuesRepository(db *bun.DB) Issues {
	repo := repository.NewRepository[*Issue](db, repository.ModelHandlers[*Issue]{
		NewRecord: func() *Issue { return &Issue{} },
		GetID: func(i *Issue) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Issue, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &issues{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (i *issues) Find(ctx context.Context, id uuid.UUID) (*Issue, error) {
	record, err := i.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || err == sql.ErrNoRows {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return record, nil
}

func (i *issues) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Issue, error) {
	records := []*Issue{}
	err := i.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return records, nil
}

func (i *issues) Insert(ctx context.Context, record *Issue) (*Issue, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = StatusOpen
	}
	now := i.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := i.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (i *issues) Patch(ctx context.Context, id uuid.UUID, changes Changes) (*Issue, error) {
	var out *Issue
	err := i.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*Issue)(nil)).
			Set("updated_at = ?", i.now()).
			Where("id = ?", id)

		if changes.Title != nil {
			q = q.Set("title = ?", *changes.Title)
		}
		if changes.Description != nil {
			q = q.Set("description = ?", *changes.Description)
		}
		if changes.Status != nil {
			q = q.Set("status = ?", string(*changes.Status))
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrIssueNotFound
		}

		record := &Issue{}
		if err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
			return err
		}
		out = record
		return nil
	})
	return out, err
}

func (i *issues) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := i.db.NewDelete().
		Model((*Issue)(nil)).
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
		return ErrIssueNotFound
	}
	return nil
}
