package sqlite

import (
	"context"
	"fmt"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/database"
)

type UsersRepo interface {
	Create(ctx context.Context, email, hash string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

type UsersRepoImpl struct{ db *database.DB }

func NewUsersRepo(db *database.DB) *UsersRepoImpl { return &UsersRepoImpl{db: db} }

func (r *UsersRepoImpl) Create(ctx context.Context, email, hash string) (*domain.User, error) {
	const q = `INSERT INTO users (email, password_hash) VALUES (?, ?)`
	res, err := r.db.Exec(ctx, q, email, hash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &domain.User{ID: res.LastInsertID, Email: email, PasswordHash: hash}, nil
}

// FindByEmail matches the stored email exactly.
func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT id, email, password_hash FROM users WHERE email = ?`
	return r.findOne(ctx, q, email)
}

func (r *UsersRepoImpl) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	const q = `UPDATE users SET password_hash = ? WHERE email = ?`
	res, err := r.db.Exec(ctx, q, hash, email)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UsersRepoImpl) findOne(ctx context.Context, q string, arg any) (*domain.User, error) {
	var u domain.User
	found, err := r.db.FetchOne(ctx, q, []any{arg}, &u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
