package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/model"
)

// GetCards returns all known cards.
func (s *SQLiteStorage) GetCards(ctx context.Context) ([]model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, bank FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		var (
			card model.Card
			bank sql.NullString
		)
		if err := rows.Scan(&card.ID, &card.Name, &bank); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card.Bank = bank.String
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// SaveCard inserts or updates a card.
func (s *SQLiteStorage) SaveCard(ctx context.Context, card *model.Card) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, bank) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, bank = excluded.bank`,
		card.ID, card.Name, card.Bank)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// GetCapRows returns the configured cap rows for a card.
func (s *SQLiteStorage) GetCapRows(ctx context.Context, cardID string) ([]model.CapRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT card_id, category_id, amount FROM card_caps WHERE card_id = ?`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cap rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var caps []model.CapRow
	for rows.Next() {
		var (
			row      model.CapRow
			category sql.NullString
			amount   string
		)
		if err := rows.Scan(&row.CardID, &category, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan cap row: %w", err)
		}
		if category.Valid {
			cat := model.Category(category.String)
			row.CategoryID = &cat
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt cap amount %q for card %s: %w", amount, cardID, err)
		}
		row.Amount = parsed
		caps = append(caps, row)
	}
	return caps, rows.Err()
}

// SaveCapRow inserts a cap row for a card. A nil category makes the cap
// apply to all spend on the card.
func (s *SQLiteStorage) SaveCapRow(ctx context.Context, row *model.CapRow) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var category any
	if row.CategoryID != nil {
		category = string(*row.CategoryID)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO card_caps (card_id, category_id, amount) VALUES (?, ?, ?)`,
		row.CardID, category, row.Amount.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to save cap row: %w", err)
	}
	return nil
}
