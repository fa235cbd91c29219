package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/model"
)

// SaveTransaction persists one logged transaction. Duplicate hashes map to
// common.ErrDuplicateEntry.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return errors.New("transaction cannot be nil")
	}
	if txn.ID == "" || txn.CardID == "" {
		return errors.New("transaction requires an id and a card id")
	}
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, hash, user_id, card_id, category_id, merchant_name, amount, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Hash, txn.UserID, txn.CardID, string(txn.CategoryID),
		txn.MerchantName, txn.Amount.StringFixed(2), txn.Date.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.ID)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// GetMonthTransactions returns the user's transactions on a card within the
// calendar month containing the given time.
func (s *SQLiteStorage) GetMonthTransactions(ctx context.Context, userID, cardID string, month time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, user_id, card_id, category_id, merchant_name, amount, occurred_at
		 FROM transactions
		 WHERE user_id = ? AND card_id = ? AND occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at`,
		userID, cardID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query month transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		txn        model.Transaction
		categoryID string
		merchant   sql.NullString
		amount     string
	)
	if err := rows.Scan(&txn.ID, &txn.Hash, &txn.UserID, &txn.CardID,
		&categoryID, &merchant, &amount, &txn.Date); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.CategoryID = model.Category(categoryID)
	txn.MerchantName = merchant.String

	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("corrupt amount %q on transaction %s: %w", amount, txn.ID, err)
	}
	txn.Amount = parsed

	return txn, nil
}
