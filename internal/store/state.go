package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MJE43/nearkarts-go/internal/battle"
	"github.com/MJE43/nearkarts-go/internal/engine"
)

// HasSignerKey reports whether key is registered.
func (t *Tx) HasSignerKey(ctx context.Context, key string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM signer_keys WHERE pub_key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up signer key: %w", err)
	}
	return true, nil
}

// AddSignerKey registers key; a present key is left alone.
func (t *Tx) AddSignerKey(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `INSERT OR IGNORE INTO signer_keys (pub_key) VALUES (?)`, key); err != nil {
		return fmt.Errorf("failed to insert signer key: %w", err)
	}
	return nil
}

// RemoveSignerKey unregisters key.
func (t *Tx) RemoveSignerKey(ctx context.Context, key string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM signer_keys WHERE pub_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete signer key: %w", err)
	}
	return nil
}

// SignerKeys lists registered keys in ascending order.
func (t *Tx) SignerKeys(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT pub_key FROM signer_keys ORDER BY pub_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list signer keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan signer key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RandomState loads the generator state; a fresh database yields the zero
// state.
func (t *Tx) RandomState(ctx context.Context) (engine.State, error) {
	var (
		st     engine.State
		cursor int64
		block  int64
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT buffer, cursor, last_block FROM random_state WHERE id = 1`).Scan(&st.Buffer, &cursor, &block)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, nil
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("failed to load random state: %w", err)
	}
	st.Cursor = uint8(cursor)
	st.LastBlock = uint64(block)
	return st, nil
}

// SaveRandomState persists the generator state.
func (t *Tx) SaveRandomState(ctx context.Context, st engine.State) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO random_state (id, buffer, cursor, last_block) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET buffer = excluded.buffer, cursor = excluded.cursor, last_block = excluded.last_block`,
		st.Buffer, int64(st.Cursor), int64(st.LastBlock))
	if err != nil {
		return fmt.Errorf("failed to save random state: %w", err)
	}
	return nil
}

// LastBattle returns the cached battle for account. ok is false when the
// account never battled.
func (t *Tx) LastBattle(ctx context.Context, account string) (rec battle.Record, ok bool, err error) {
	var raw string
	err = t.tx.QueryRowContext(ctx, `SELECT record FROM last_battles WHERE account_id = ?`, account).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return battle.Record{}, false, nil
	}
	if err != nil {
		return battle.Record{}, false, fmt.Errorf("failed to load last battle: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return battle.Record{}, false, fmt.Errorf("failed to decode last battle: %w", err)
	}
	return rec, true, nil
}

// PutLastBattle overwrites the cached battle for account.
func (t *Tx) PutLastBattle(ctx context.Context, account string, rec battle.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode last battle: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO last_battles (account_id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		account, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save last battle: %w", err)
	}
	return nil
}
