package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// ledgerTx implements storage.LedgerTx on top of a *sql.Tx.
type ledgerTx struct {
	q querier
}

const transactionColumns = `id, friend_id, amount, type, status, date, description, proof_image, created_at`

// InsertTransaction persists tx. ID and CreatedAt must already be set.
func (t *ledgerTx) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	var proof any
	if tx.ProofImage != "" {
		proof = tx.ProofImage
	}

	_, err := t.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.FriendID, tx.Amount.String(), string(tx.Type), string(tx.Status),
		toUnixNano(tx.Date), tx.Description, proof, toUnixNano(tx.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction reads a transaction inside the unit.
func (t *ledgerTx) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	return getTransaction(ctx, t.q, txID)
}

// UpdateTransactionStatus rewrites only the status column.
func (t *ledgerTx) UpdateTransactionStatus(ctx context.Context, txID string, status models.TransactionStatus) error {
	res, err := t.q.ExecContext(ctx,
		"UPDATE transactions SET status = ? WHERE id = ?",
		string(status), txID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, txID)
}

// ListTransactions returns the transactions matching filter, newest date first.
// Entries sharing a date come back newest insert first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if filter.FriendID != "" {
		where = append(where, "friend_id = ?")
		args = append(args, filter.FriendID)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		where = append(where, "date >= ?")
		args = append(args, toUnixNano(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "date <= ?")
		args = append(args, toUnixNano(*filter.To))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

func getTransaction(ctx context.Context, q querier, txID string) (*models.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		txID,
	)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var (
		txType, status  string
		date, createdAt int64
		proof           sql.NullString
	)
	if err := row.Scan(
		&tx.ID,
		&tx.FriendID,
		&tx.Amount,
		&txType,
		&status,
		&date,
		&tx.Description,
		&proof,
		&createdAt,
	); err != nil {
		return nil, err
	}

	tx.Type = models.TransactionType(txType)
	tx.Status = models.TransactionStatus(status)
	tx.Date = fromUnixNano(date)
	tx.CreatedAt = fromUnixNano(createdAt)
	if proof.Valid {
		tx.ProofImage = proof.String
	}
	return tx, nil
}
