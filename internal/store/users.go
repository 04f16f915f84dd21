package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Users persists and loads user accounts.
type Users struct {
	Pool *pgxpool.Pool
}

// CreateUserParams captures input for CreateUser.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Category     string
	RegisteredAt time.Time
}

// CreateUser inserts a new user and returns the stored row.
func (s Users) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, category, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, category, registered_at, created_at`,
		arg.Name, arg.Email, arg.PasswordHash, arg.Category, pgTime(arg.RegisteredAt))
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail loads a user by normalized email.
func (s Users) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, category, registered_at, created_at
		FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID loads a user by identifier.
func (s Users) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, category, registered_at, created_at
		FROM users WHERE id = $1`, pgUUID(id))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u            User
		id           pgtype.UUID
		registeredAt pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.Category, &registeredAt, &createdAt); err != nil {
		return User{}, err
	}
	u.ID = fromPGUUID(id)
	u.RegisteredAt = fromPGTime(registeredAt)
	u.CreatedAt = fromPGTime(createdAt)
	return u, nil
}
