package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotspotpay/internal/models"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository is the ledger of STK push transactions.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)
	// Resolve moves a Pending transaction to status. applied is false when the
	// transaction had already reached a terminal state; the stored row is returned
	// unchanged in that case. pgx.ErrNoRows means the id is unknown.
	Resolve(ctx context.Context, checkoutRequestID string, status models.TransactionStatus, receipt string) (txn *models.Transaction, applied bool, err error)
	// ExpirePending times out every Pending transaction created before olderThan.
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)
}

type transactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionColumns = `id, phone_number, plan_id, amount::text, checkout_request_id, merchant_request_id, receipt_number, status, failure_reason, created_at, updated_at`

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO stk_transactions (id, phone_number, plan_id, amount, checkout_request_id, merchant_request_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := r.db.Exec(ctx, query, txn.ID, txn.PhoneNumber, txn.PlanID, txn.Amount, txn.CheckoutRequestID, txn.MerchantRequestID, string(txn.Status.Kind), txn.CreatedAt)
	if err != nil {
		return wrapInsertError("transaction", err)
	}
	txn.UpdatedAt = txn.CreatedAt
	return nil
}

func (r *transactionRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM stk_transactions
		WHERE checkout_request_id = $1
	`
	return scanTransaction(r.db.QueryRow(ctx, query, checkoutRequestID))
}

func (r *transactionRepo) Resolve(ctx context.Context, checkoutRequestID string, status models.TransactionStatus, receipt string) (*models.Transaction, bool, error) {
	if !status.IsTerminal() {
		return nil, false, fmt.Errorf("cannot resolve transaction to non-terminal status %s", status)
	}

	query := `
		UPDATE stk_transactions
		SET status = $1, failure_reason = NULLIF($2, ''), receipt_number = COALESCE(NULLIF($3, ''), receipt_number), updated_at = NOW()
		WHERE checkout_request_id = $4 AND status = 'Pending'
		RETURNING ` + transactionColumns

	txn, err := scanTransaction(r.db.QueryRow(ctx, query, string(status.Kind), status.Reason, receipt, checkoutRequestID))
	if err == nil {
		return txn, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Either unknown, or another writer got there first.
	existing, err := r.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *transactionRepo) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		UPDATE stk_transactions
		SET status = 'TimedOut', updated_at = NOW()
		WHERE status = 'Pending' AND created_at < $1
	`
	tag, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("expire pending transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var amount, status string
	var reason *string

	err := row.Scan(&txn.ID, &txn.PhoneNumber, &txn.PlanID, &amount, &txn.CheckoutRequestID, &txn.MerchantRequestID, &txn.ReceiptNumber, &status, &reason, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if txn.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	kind, err := models.ParseStatusKind(status)
	if err != nil {
		return nil, err
	}
	txn.Status = models.TransactionStatus{Kind: kind}
	if kind == models.StatusFailed && reason != nil {
		txn.Status.Reason = *reason
	}
	return txn, nil
}
