package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/roach88/perfumery/internal/model"
)

// SaveSession stores user as the signed-in user, replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session (id, user_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET user_json = excluded.user_json
	`, string(data))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored user. ok is false when nobody is signed in.
func (s *Store) LoadSession(ctx context.Context) (user model.User, ok bool, err error) {
	var data string
	err = s.db.QueryRowContext(ctx, `SELECT user_json FROM session WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return model.User{}, false, fmt.Errorf("load session: %w", err)
	}
	return user, true, nil
}

// ClearSession forgets the signed-in user.
func (s *Store) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SaveCookies replaces the cookies stored for origin.
// Only name and value are kept; attributes are the server's concern.
func (s *Store) SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cookies WHERE origin = ?`, origin); err != nil {
			return err
		}
		for _, c := range cookies {
			if c == nil || c.Name == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cookies (origin, name, value) VALUES (?, ?, ?)
				ON CONFLICT(origin, name) DO UPDATE SET value = excluded.value
			`, origin, c.Name, c.Value)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save cookies: %w", err)
	}
	return nil
}

// LoadCookies returns the cookies stored for origin, ordered by name.
func (s *Store) LoadCookies(ctx context.Context, origin string) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM cookies WHERE origin = ?
		ORDER BY name COLLATE BINARY ASC
	`, origin)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()

	var out []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("load cookies: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	return out, nil
}

// ClearCookies deletes every stored cookie for every origin.
func (s *Store) ClearCookies(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}
