package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores transfers in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed transfer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const transferColumns = `id, code, user_id, recipient_id, account_id, amount_usd, fee_usd, fee_label,
    exchange_rate, destination_inr, status, quote_expires_at, created_at,
    confirmed_at, withdrawn_at, completed_at, cancelled_at, failed_at`

// Create inserts a new quote.
func (r *PostgresRepository) Create(ctx context.Context, input CreateInput) (Transfer, error) {
	id := uuid.New()
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return Transfer{}, err
	}
	recipientID, err := uuid.Parse(input.RecipientID)
	if err != nil {
		return Transfer{}, err
	}
	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO transfers
        (id, code, user_id, recipient_id, amount_usd, fee_usd, fee_label,
         exchange_rate, destination_inr, status, quote_expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, input.Code, userID, recipientID, input.Amount, input.Fee, input.FeeLabel,
		input.Rate, input.Destination, StatusQuote, input.QuoteExpiresAt.UTC(), now)
	if err != nil {
		return Transfer{}, err
	}
	return Transfer{
		ID:             id.String(),
		Code:           input.Code,
		UserID:         input.UserID,
		RecipientID:    input.RecipientID,
		Amount:         input.Amount,
		Fee:            input.Fee,
		FeeLabel:       input.FeeLabel,
		Rate:           input.Rate,
		Destination:    input.Destination,
		Status:         StatusQuote,
		QuoteExpiresAt: input.QuoteExpiresAt.UTC(),
		CreatedAt:      now,
	}, nil
}

// FindByID fetches one transfer.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Transfer, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return Transfer{}, ErrNotFound
	}
	t, err := scanTransfer(r.db.QueryRow(ctx, `SELECT `+transferColumns+`
        FROM transfers WHERE id = $1`, tid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrNotFound
		}
		return Transfer{}, err
	}
	return t, nil
}

// FindActive looks for an in-flight transfer with the same shape.
func (r *PostgresRepository) FindActive(ctx context.Context, userID, recipientID string, amount float64) (Transfer, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Transfer{}, ErrNotFound
	}
	rid, err := uuid.Parse(recipientID)
	if err != nil {
		return Transfer{}, ErrNotFound
	}
	t, err := scanTransfer(r.db.QueryRow(ctx, `SELECT `+transferColumns+`
        FROM transfers
        WHERE user_id = $1 AND recipient_id = $2 AND amount_usd = $3
          AND status IN ($4, $5, $6)
        ORDER BY created_at DESC LIMIT 1`,
		uid, rid, amount, StatusQuote, StatusProcessingWithdrawal, StatusProcessingPayout))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transfer{}, ErrNotFound
		}
		return Transfer{}, err
	}
	return t, nil
}

// FindRecentByUser lists the user's latest transfers, newest first.
func (r *PostgresRepository) FindRecentByUser(ctx context.Context, userID string, limit int) ([]Transfer, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+transferColumns+`
        FROM transfers WHERE user_id = $1
        ORDER BY created_at DESC LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// UpdateStatus applies a compare-and-set transition and stamps the
// timestamp column matching the target status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return false, ErrNotFound
	}
	column := timestampColumn(to)
	cmd, err := r.db.Exec(ctx, `UPDATE transfers
        SET status = $1, `+column+` = NOW(), updated_at = NOW()
        WHERE id = $2 AND status = $3`, to, tid, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// UpdateQuote refreshes the rate while the transfer is still a quote.
func (r *PostgresRepository) UpdateQuote(ctx context.Context, id string, rate, destination float64) (bool, error) {
	tid, err := uuid.Parse(id)
	if err != nil {
		return false, ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transfers
        SET exchange_rate = $1, destination_inr = $2, updated_at = NOW()
        WHERE id = $3 AND status = $4`, rate, destination, tid, StatusQuote)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// AttachAccount records the funding account chosen for the transfer.
func (r *PostgresRepository) AttachAccount(ctx context.Context, id, accountID string) error {
	tid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	aid, err := uuid.Parse(accountID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transfers SET account_id = $1, updated_at = NOW()
        WHERE id = $2`, aid, tid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func timestampColumn(to Status) string {
	switch to {
	case StatusProcessingWithdrawal:
		return "confirmed_at"
	case StatusProcessingPayout:
		return "withdrawn_at"
	case StatusCompleted:
		return "completed_at"
	case StatusCancelled:
		return "cancelled_at"
	case StatusFailed:
		return "failed_at"
	}
	return "updated_at"
}

func scanTransfer(row pgx.Row) (Transfer, error) {
	var (
		id          uuid.UUID
		userID      uuid.UUID
		recipientID uuid.UUID
		accountID   *uuid.UUID
		t           Transfer
	)
	if err := row.Scan(&id, &t.Code, &userID, &recipientID, &accountID, &t.Amount, &t.Fee, &t.FeeLabel,
		&t.Rate, &t.Destination, &t.Status, &t.QuoteExpiresAt, &t.CreatedAt,
		&t.ConfirmedAt, &t.WithdrawnAt, &t.CompletedAt, &t.CancelledAt, &t.FailedAt); err != nil {
		return Transfer{}, err
	}
	t.ID = id.String()
	t.UserID = userID.String()
	t.RecipientID = recipientID.String()
	if accountID != nil {
		t.AccountID = accountID.String()
	}
	t.QuoteExpiresAt = t.QuoteExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
