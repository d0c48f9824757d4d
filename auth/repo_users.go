package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the Credential Store
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)

	// RegisterTx hashes password and inserts the user
	RegisterTx(ctx context.Context, tx bun.IDB, user *User, password string) (*User, error)
	// UpdatePasswordTx hashes password and persists it
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, password string) error
	SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	ClearResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileChanges) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ProfileChanges lists optional profile updates, nil fields are left untouched
type ProfileChanges struct {
	Name  *string
	Email *string
	Role  *Role
}

func (p ProfileChanges) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil
}

type users struct {
	repository.Repository[*User]
	db     *bun.DB
	hasher PasswordHasher
	now    func() time.Time
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

// WithUsersHasher sets the hasher used by RegisterTx and UpdatePasswordTx
func WithUsersHasher(h PasswordHasher) UsersOption {
	return func(u *users) {
		if h != nil {
			u.hasher = h
		}
	}
}

func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		hasher:     NewBcryptHasher(DefaultBcryptCost),
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, map[string]any{"email": email})
	}
	return record, nil
}

func (a *users) GetByResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.reset_password_token = ?", tokenHash).
		Where("?TableAlias.reset_password_expire IS NOT NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, nil)
	}
	return record, nil
}

func (a *users) ListAll(ctx context.Context) ([]*User, error) {
	records := []*User{}
	err := a.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return records, nil
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User, password string) (*User, error) {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	prepareUserDefaults(user)
	user.PasswordHash = hash

	now := a.now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return user, nil
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, password string) error {
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}

	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return ensureAffected(res, id)
}

func (a *users) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("reset_password_token = ?", tokenHash).
		Set("reset_password_expire = ?", expiresAt).
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return ensureAffected(res, id)
}

func (a *users) ClearResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("reset_password_token = NULL").
		Set("reset_password_expire = NULL").
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return ensureAffected(res, id)
}

func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileChanges) (*User, error) {
	if !changes.IsEmpty() {
		q := tx.NewUpdate().
			Model((*User)(nil)).
			Set("updated_at = ?", a.now()).
			Where("id = ?", id)

		if changes.Name != nil {
			q = q.Set("name = ?", strings.TrimSpace(*changes.Name))
		}
		if changes.Email != nil {
			q = q.Set("email = ?", normalizeEmail(*changes.Email))
		}
		if changes.Role != nil {
			q = q.Set("role = ?", *changes.Role)
		}

		res, err := q.Exec(ctx)
		if err != nil {
			if IsUniqueViolation(err) {
				return nil, ErrEmailInUse
			}
			return nil, err
		}

		if err := ensureAffected(res, id); err != nil {
			return nil, err
		}
	}

	record := &User{}
	if err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
		return nil, notFoundOr(err, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	loggedInAt := a.now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err == nil {
		user.LoggedInAt = &loggedInAt
	}
	return err
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return ensureAffected(res, id)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if !record.Role.IsValid() {
		record.Role = DefaultRole
	}

	record.Email = normalizeEmail(record.Email)
	record.Name = strings.TrimSpace(record.Name)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ensureAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return nil
}

func notFoundOr(err error, meta map[string]any) error {
	if err == sql.ErrNoRows || repository.IsRecordNotFound(err) {
		if meta == nil {
			return repository.NewRecordNotFound()
		}
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
}

// IsNotFound reports store level not found errors
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return err == sql.ErrNoRows || repository.IsRecordNotFound(err) || errors.IsNotFound(err)
}
