package recipient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores recipients in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed recipient repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recipientColumns = `id, user_id, nickname, payment_method, upi_id, account_number,
    ifsc_code, bank_name, verified, verification_name, is_active, created_at`

// Create inserts a recipient record.
func (r *PostgresRepository) Create(ctx context.Context, input CreateInput) (Recipient, error) {
	id := uuid.New()
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return Recipient{}, err
	}
	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO recipients
        (id, user_id, nickname, payment_method, upi_id, account_number,
         ifsc_code, bank_name, verified, verification_name, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, $11)`,
		id, userID, input.Nickname, input.PaymentMethod, input.UPIID, input.AccountNumber,
		input.IFSCCode, input.BankName, input.Verified, input.VerificationName, now)
	if err != nil {
		return Recipient{}, err
	}
	return Recipient{
		ID:               id.String(),
		UserID:           input.UserID,
		Nickname:         input.Nickname,
		PaymentMethod:    input.PaymentMethod,
		UPIID:            input.UPIID,
		AccountNumber:    input.AccountNumber,
		IFSCCode:         input.IFSCCode,
		BankName:         input.BankName,
		Verified:         input.Verified,
		VerificationName: input.VerificationName,
		Active:           true,
		CreatedAt:        now,
	}, nil
}

// FindByUser lists the user's active recipients oldest first.
func (r *PostgresRepository) FindByUser(ctx context.Context, userID string) ([]Recipient, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+recipientColumns+`
        FROM recipients WHERE user_id = $1 AND is_active = true
        ORDER BY created_at ASC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

// FindByID fetches one recipient.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Recipient, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return Recipient{}, ErrNotFound
	}
	rec, err := scanRecipient(r.db.QueryRow(ctx, `SELECT `+recipientColumns+`
        FROM recipients WHERE id = $1`, rid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recipient{}, ErrNotFound
		}
		return Recipient{}, err
	}
	return rec, nil
}

// FindByNickname looks up an active recipient case-insensitively.
func (r *PostgresRepository) FindByNickname(ctx context.Context, userID, nickname string) (Recipient, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Recipient{}, ErrNotFound
	}
	rec, err := scanRecipient(r.db.QueryRow(ctx, `SELECT `+recipientColumns+`
        FROM recipients
        WHERE user_id = $1 AND LOWER(nickname) = LOWER($2) AND is_active = true`, uid, nickname))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recipient{}, ErrNotFound
		}
		return Recipient{}, err
	}
	return rec, nil
}

// Deactivate soft-deletes a recipient.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE recipients SET is_active = false, updated_at = NOW()
        WHERE id = $1`, rid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecipient(row pgx.Row) (Recipient, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		rec       Recipient
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &rec.Nickname, &rec.PaymentMethod, &rec.UPIID, &rec.AccountNumber,
		&rec.IFSCCode, &rec.BankName, &rec.Verified, &rec.VerificationName, &rec.Active, &createdAt); err != nil {
		return Recipient{}, err
	}
	rec.ID = id.String()
	rec.UserID = userID.String()
	rec.CreatedAt = createdAt.UTC()
	return rec, nil
}
