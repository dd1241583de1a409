package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
)

// CreateBill archives a bill with its items and assignments.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate bill id: %w", err)
		}
		bill.ID = id.String()
	}
	if bill.Date.IsZero() {
		bill.Date = time.Now().UTC()
	}
	if bill.Title == "" {
		bill.Title = generateTitle(bill.Date, itemNames(bill.Items))
	}
	if bill.PayerID == "" {
		bill.PayerID = models.AdminPayerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert bill
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, title, date, subtotal, tax, service_charge, total, payer_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Title, toUnixNano(bill.Date),
		bill.Subtotal.String(), bill.Tax.String(), bill.ServiceCharge.String(), bill.Total.String(),
		bill.PayerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	// Insert items and their assignments
	for i := range bill.Items {
		item := &bill.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bill_items (id, bill_id, position, name, price, quantity)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, bill.ID, i, item.Name, item.Price.String(), item.Quantity.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for _, friendID := range item.AssignedTo {
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO bill_item_assignments (item_id, friend_id) VALUES (?, ?)",
				item.ID, friendID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBill retrieves a bill by ID, including all items and assignments.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, date, subtotal, tax, service_charge, total, payer_id
		 FROM bills WHERE id = ?`,
		billID,
	)
	bill, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	// Get items in entry order
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price, quantity FROM bill_items WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.BillItem
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		bill.Items = append(bill.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Get all assignments for the bill in one pass
	assignRows, err := s.db.QueryContext(ctx,
		`SELECT a.item_id, a.friend_id
		 FROM bill_item_assignments a
		 JOIN bill_items i ON i.id = a.item_id
		 WHERE i.bill_id = ?
		 ORDER BY a.friend_id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item assignments: %w", err)
	}
	defer assignRows.Close()

	assigned := make(map[string][]string)
	for assignRows.Next() {
		var itemID, friendID string
		if err := assignRows.Scan(&itemID, &friendID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assigned[itemID] = append(assigned[itemID], friendID)
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	for i := range bill.Items {
		bill.Items[i].AssignedTo = assigned[bill.Items[i].ID]
	}

	return bill, nil
}

// ListBills returns bill headers, newest first. Items are not loaded.
func (s *SQLiteStore) ListBills(ctx context.Context) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, date, subtotal, tax, service_charge, total, payer_id
		 FROM bills ORDER BY date DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

func scanBill(row rowScanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var date int64
	if err := row.Scan(
		&bill.ID,
		&bill.Title,
		&date,
		&bill.Subtotal,
		&bill.Tax,
		&bill.ServiceCharge,
		&bill.Total,
		&bill.PayerID,
	); err != nil {
		return nil, err
	}
	bill.Date = fromUnixNano(date)
	return bill, nil
}

func itemNames(items []models.BillItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names
}

// generateTitle creates an auto-generated title from the item names.
func generateTitle(date time.Time, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("Bill - %s", date.Format("Jan 2, 2006"))
	}
	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
