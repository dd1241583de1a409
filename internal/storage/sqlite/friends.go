package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// accessCodeAttempts bounds how often CreateFriend regenerates a colliding code.
const accessCodeAttempts = 5

const friendColumns = `id, name, access_code, balance, version, created_at`

// CreateFriend inserts a new friend with a zero balance and a fresh access code.
func (s *SQLiteStore) CreateFriend(ctx context.Context, friend *models.Friend) error {
	if friend.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate friend id: %w", err)
		}
		friend.ID = id.String()
	}
	if friend.CreatedAt.IsZero() {
		friend.CreatedAt = time.Now().UTC()
	}
	friend.Balance = decimal.Zero
	friend.Version = 0

	var lastErr error
	for attempt := 0; attempt < accessCodeAttempts; attempt++ {
		code, err := generateAccessCode()
		if err != nil {
			return fmt.Errorf("failed to generate access code: %w", err)
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO friends (id, name, access_code, balance, version, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			friend.ID, friend.Name, code, friend.Balance.String(), friend.Version, toUnixNano(friend.CreatedAt),
		)
		if err == nil {
			friend.AccessCode = code
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("failed to create friend: %w", err)
		}
		lastErr = err
	}

	return apperrors.Wrap(apperrors.ErrStoreUnavailable,
		fmt.Errorf("no unique access code after %d attempts: %w", accessCodeAttempts, lastErr))
}

// GetFriend retrieves a friend by ID.
func (s *SQLiteStore) GetFriend(ctx context.Context, friendID string) (*models.Friend, error) {
	return getFriend(ctx, s.db, friendID)
}

// GetFriendByAccessCode retrieves the friend holding code.
func (s *SQLiteStore) GetFriendByAccessCode(ctx context.Context, code string) (*models.Friend, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+friendColumns+` FROM friends WHERE access_code = ?`,
		code,
	)
	friend, err := scanFriend(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrFriendNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend by access code: %w", err)
	}
	return friend, nil
}

// ListFriends returns every friend ordered by name.
func (s *SQLiteStore) ListFriends(ctx context.Context) ([]*models.Friend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+friendColumns+` FROM friends ORDER BY name, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.Friend
	for rows.Next() {
		friend, err := scanFriend(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}

// DeleteFriend removes a friend and all of their transactions in one transaction.
func (s *SQLiteStore) DeleteFriend(ctx context.Context, friendID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE friend_id = ?", friendID); err != nil {
		return fmt.Errorf("failed to delete friend transactions: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM friends WHERE id = ?", friendID)
	if err != nil {
		return fmt.Errorf("failed to delete friend: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrFriendNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetFriend reads a friend inside the unit.
func (t *ledgerTx) GetFriend(ctx context.Context, friendID string) (*models.Friend, error) {
	return getFriend(ctx, t.q, friendID)
}

// UpdateFriendBalance writes balance if friend.Version is still current and
// advances friend.Version on success. A stale version yields storage.ErrConflict.
func (t *ledgerTx) UpdateFriendBalance(ctx context.Context, friend *models.Friend, balance decimal.Decimal) error {
	res, err := t.q.ExecContext(ctx,
		"UPDATE friends SET balance = ?, version = version + 1 WHERE id = ? AND version = ?",
		balance.String(), friend.ID, friend.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}

	friend.Balance = balance
	friend.Version++
	return nil
}

func getFriend(ctx context.Context, q querier, friendID string) (*models.Friend, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+friendColumns+` FROM friends WHERE id = ?`,
		friendID,
	)
	friend, err := scanFriend(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrFriendNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}
	return friend, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFriend(row rowScanner) (*models.Friend, error) {
	friend := &models.Friend{}
	var createdAt int64
	if err := row.Scan(
		&friend.ID,
		&friend.Name,
		&friend.AccessCode,
		&friend.Balance,
		&friend.Version,
		&createdAt,
	); err != nil {
		return nil, err
	}
	friend.CreatedAt = fromUnixNano(createdAt)
	return friend, nil
}

// generateAccessCode returns a uniformly random 6-digit code in [100000, 999999].
func generateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
