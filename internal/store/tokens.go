package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
)

// Tokens enumerate in token id order, the ordering of the ledger's owner
// index.

// InsertToken adds a new ledger entry.
func (t *Tx) InsertToken(ctx context.Context, tok nft.Token) error {
	meta, err := json.Marshal(tok.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO tokens (token_id, owner_id, metadata) VALUES (?, ?, ?)`,
		tok.TokenID, tok.OwnerID, string(meta))
	if err != nil {
		if isUniqueViolation(err) {
			return kart.ErrDuplicateToken
		}
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// TokenExists reports whether tokenID has been minted.
func (t *Tx) TokenExists(ctx context.Context, tokenID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM tokens WHERE token_id = ?`, tokenID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	return true, nil
}

// Token loads a ledger entry.
func (t *Tx) Token(ctx context.Context, tokenID string) (nft.Token, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT token_id, owner_id, metadata FROM tokens WHERE token_id = ?`, tokenID)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nft.Token{}, kart.ErrTokenNotFound
	}
	return tok, err
}

// OwnerOf returns the owner account of tokenID.
func (t *Tx) OwnerOf(ctx context.Context, tokenID string) (string, error) {
	var owner string
	err := t.tx.QueryRowContext(ctx, `SELECT owner_id FROM tokens WHERE token_id = ?`, tokenID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kart.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up owner: %w", err)
	}
	return owner, nil
}

// SetOwner moves tokenID to a new owner.
func (t *Tx) SetOwner(ctx context.Context, tokenID, owner string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE tokens SET owner_id = ? WHERE token_id = ?`, owner, tokenID)
	if err != nil {
		return fmt.Errorf("failed to update owner: %w", err)
	}
	return requireRow(res)
}

// Extra returns the metadata extra field, "" when unset.
func (t *Tx) Extra(ctx context.Context, tokenID string) (string, error) {
	tok, err := t.Token(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return nft.Value(tok.Metadata.Extra), nil
}

// SetExtra replaces the metadata extra field.
func (t *Tx) SetExtra(ctx context.Context, tokenID, extra string) error {
	return t.updateMetadata(ctx, tokenID, func(m *nft.TokenMetadata) {
		m.Extra = nft.String(extra)
	})
}

// SetMedia replaces the metadata media reference.
func (t *Tx) SetMedia(ctx context.Context, tokenID, media string) error {
	return t.updateMetadata(ctx, tokenID, func(m *nft.TokenMetadata) {
		m.Media = nft.String(media)
	})
}

func (t *Tx) updateMetadata(ctx context.Context, tokenID string, mutate func(*nft.TokenMetadata)) error {
	tok, err := t.Token(ctx, tokenID)
	if err != nil {
		return err
	}
	mutate(&tok.Metadata)
	meta, err := json.Marshal(tok.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE tokens SET metadata = ? WHERE token_id = ?`, string(meta), tokenID)
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return requireRow(res)
}

// TokenIDs lists every token id in ledger order.
func (t *Tx) TokenIDs(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT token_id FROM tokens ORDER BY token_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountTokens returns the total supply.
func (t *Tx) CountTokens(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return n, nil
}

// TokenIDAt returns the id at position index in ledger order.
func (t *Tx) TokenIDAt(ctx context.Context, index int) (string, error) {
	var id string
	err := t.tx.QueryRowContext(ctx,
		`SELECT token_id FROM tokens ORDER BY token_id LIMIT 1 OFFSET ?`, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kart.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token index: %w", err)
	}
	return id, nil
}

// TokensForOwner pages through an owner's tokens in id order.
func (t *Tx) TokensForOwner(ctx context.Context, owner string, offset, limit int) ([]nft.Token, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.tx.QueryContext(ctx,
		`SELECT token_id, owner_id, metadata FROM tokens WHERE owner_id = ? ORDER BY token_id LIMIT ? OFFSET ?`,
		owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner tokens: %w", err)
	}
	defer rows.Close()

	var out []nft.Token
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// CountForOwner returns how many tokens owner holds.
func (t *Tx) CountForOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens WHERE owner_id = ?`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count owner tokens: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (nft.Token, error) {
	var (
		tok  nft.Token
		meta string
	)
	if err := row.Scan(&tok.TokenID, &tok.OwnerID, &meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nft.Token{}, err
		}
		return nft.Token{}, fmt.Errorf("failed to scan token: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &tok.Metadata); err != nil {
		return nft.Token{}, fmt.Errorf("failed to decode metadata for %s: %w", tok.TokenID, err)
	}
	return tok, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return kart.ErrTokenNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}
