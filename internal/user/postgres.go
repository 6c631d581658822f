package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user with a pending KYC status.
func (r *PostgresRepository) Create(ctx context.Context, input CreateInput) (User, error) {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, phone_number, full_name, email, date_of_birth, address, kyc_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, input.PhoneNumber, input.FullName, input.Email, input.DateOfBirth, input.Address, KYCPending, now)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:          id.String(),
		PhoneNumber: input.PhoneNumber,
		FullName:    input.FullName,
		Email:       input.Email,
		DateOfBirth: input.DateOfBirth,
		Address:     input.Address,
		KYCStatus:   KYCPending,
		CreatedAt:   now,
	}, nil
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, phone_number, full_name, email, date_of_birth, address, kyc_status, created_at
        FROM users WHERE phone_number = $1`, phone))
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, phone_number, full_name, email, date_of_birth, address, kyc_status, created_at
        FROM users WHERE id = $1`, userID))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		u         User
		dob       time.Time
		createdAt time.Time
	)
	if err := row.Scan(&id, &u.PhoneNumber, &u.FullName, &u.Email, &dob, &u.Address, &u.KYCStatus, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.DateOfBirth = dob.UTC()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}
