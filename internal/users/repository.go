package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKale112/devConnector/internal/apperr"
	"github.com/MKale112/devConnector/internal/models"
)

var errUserNotFound = apperr.NotFound("User not found")

type Repository interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type repo struct{ db *sql.DB }

func NewRepository(db *sql.DB) Repository { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(id,name,email,password_hash,avatar,created_at) VALUES(?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return errUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id,name,email,password_hash,avatar,created_at FROM users WHERE email = ?`, email))
}

func (r *repo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id,name,email,password_hash,avatar,created_at FROM users WHERE id = ?`, id))
}

func (r *repo) scanOne(row *sql.Row) (*models.User, error) {
	var u models.User
	var created int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
