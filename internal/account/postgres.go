package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores funding accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, user_id, access_token, external_id, account_number, routing_number,
    bank_name, holder_name, account_type, verified, is_active, is_default, created_at`

// Create inserts a verified, active account record.
func (r *PostgresRepository) Create(ctx context.Context, input CreateInput) (Account, error) {
	id := uuid.New()
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return Account{}, err
	}
	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO user_bank_accounts
        (id, user_id, access_token, external_id, account_number, routing_number,
         bank_name, holder_name, account_type, verified, is_active, is_default, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, true, $10, $11)`,
		id, userID, input.AccessToken, input.ExternalID, input.AccountNumber, input.RoutingNumber,
		input.BankName, input.HolderName, input.AccountType, input.Default, now)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:            id.String(),
		UserID:        input.UserID,
		AccessToken:   input.AccessToken,
		ExternalID:    input.ExternalID,
		AccountNumber: input.AccountNumber,
		RoutingNumber: input.RoutingNumber,
		BankName:      input.BankName,
		HolderName:    input.HolderName,
		AccountType:   input.AccountType,
		Verified:      true,
		Active:        true,
		Default:       input.Default,
		CreatedAt:     now,
	}, nil
}

// FindByUser lists active accounts, default first then oldest first.
func (r *PostgresRepository) FindByUser(ctx context.Context, userID string) ([]Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+`
        FROM user_bank_accounts
        WHERE user_id = $1 AND is_active = true
        ORDER BY is_default DESC, created_at ASC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// FindByID fetches one account regardless of active flag.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+`
        FROM user_bank_accounts WHERE id = $1`, aid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// CountByUser counts the user's active accounts.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, ErrNotFound
	}
	var count int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_bank_accounts
        WHERE user_id = $1 AND is_active = true`, uid).Scan(&count)
	return count, err
}

// SetDefault flips the default flag to the given account inside one
// transaction so exactly one default survives.
func (r *PostgresRepository) SetDefault(ctx context.Context, accountID, userID string) error {
	aid, err := uuid.Parse(accountID)
	if err != nil {
		return ErrNotFound
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE user_bank_accounts SET is_default = false, updated_at = NOW()
        WHERE user_id = $1`, uid); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE user_bank_accounts SET is_default = true, updated_at = NOW()
        WHERE id = $1 AND user_id = $2 AND is_active = true`, aid, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// Deactivate soft-deletes an account.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	aid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE user_bank_accounts SET is_active = false, is_default = false, updated_at = NOW()
        WHERE id = $1`, aid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		a         Account
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &a.AccessToken, &a.ExternalID, &a.AccountNumber, &a.RoutingNumber,
		&a.BankName, &a.HolderName, &a.AccountType, &a.Verified, &a.Active, &a.Default, &createdAt); err != nil {
		return Account{}, err
	}
	a.ID = id.String()
	a.UserID = userID.String()
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
