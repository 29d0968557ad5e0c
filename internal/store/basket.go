package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/perfumery/internal/model"
)

// SaveBasket stores the local cart snapshot taken at seq.
func (s *Store) SaveBasket(ctx context.Context, seq int64, items []model.CartItem) error {
	if items == nil {
		items = []model.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO basket (id, seq, items_json) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET seq = excluded.seq, items_json = excluded.items_json
	`, seq, string(data))
	if err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	return nil
}

// LoadBasket returns the stored snapshot. An empty store yields seq 0 and
// no items.
func (s *Store) LoadBasket(ctx context.Context) (int64, []model.CartItem, error) {
	var (
		seq  int64
		data string
	)
	err := s.db.QueryRowContext(ctx, `SELECT seq, items_json FROM basket WHERE id = 1`).Scan(&seq, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("load basket: %w", err)
	}
	var items []model.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return 0, nil, fmt.Errorf("load basket: %w", err)
	}
	return seq, items, nil
}

// AppendCartEvent adds ev to the cart journal.
func (s *Store) AppendCartEvent(ctx context.Context, ev model.CartEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_journal
		(seq, action, perfume_id, volume, quantity, idem_key, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Seq,
		ev.Action,
		ev.PerfumeID,
		ev.Volume,
		ev.Quantity,
		ev.Key,
		ev.Outcome,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("append cart event: %w", err)
	}
	return nil
}

// ReadCartEvents returns the last limit journal entries in insertion order.
// limit <= 0 returns the whole journal.
func (s *Store) ReadCartEvents(ctx context.Context, limit int) ([]model.CartEvent, error) {
	query := `
		SELECT seq, action, perfume_id, volume, quantity, idem_key, outcome, error
		FROM cart_journal
		ORDER BY id ASC
	`
	args := []any{}
	if limit > 0 {
		query = `
			SELECT seq, action, perfume_id, volume, quantity, idem_key, outcome, error
			FROM (SELECT * FROM cart_journal ORDER BY id DESC LIMIT ?)
			ORDER BY id ASC
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read cart events: %w", err)
	}
	defer rows.Close()

	events := []model.CartEvent{}
	for rows.Next() {
		var ev model.CartEvent
		if err := rows.Scan(&ev.Seq, &ev.Action, &ev.PerfumeID, &ev.Volume, &ev.Quantity, &ev.Key, &ev.Outcome, &ev.Error); err != nil {
			return nil, fmt.Errorf("read cart events: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart events: %w", err)
	}
	return events, nil
}
