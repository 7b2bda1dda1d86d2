package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event is one committed EVENT_JSON line.
type Event struct {
	ID        int64     `json:"id"`
	CallID    string    `json:"call_id"`
	Line      string    `json:"line"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry records a successful state changing call so it can be
// exported and replayed.
type JournalEntry struct {
	Seq       int64           `json:"seq"`
	CallID    string          `json:"call_id"`
	Method    string          `json:"method"`
	Env       json.RawMessage `json:"env"`
	Args      json.RawMessage `json:"args"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// AppendEvent stores a log line emitted by callID.
func (t *Tx) AppendEvent(ctx context.Context, callID, line string) (Event, error) {
	ev := Event{CallID: callID, Line: line, CreatedAt: time.Now().UTC()}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO events (call_id, line, created_at) VALUES (?, ?, ?)`, callID, line, ev.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("failed to append event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return Event{}, fmt.Errorf("failed to read event id: %w", err)
	}
	return ev, nil
}

// Events pages through the event log after the given id.
func (t *Tx) Events(ctx context.Context, afterID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, call_id, line, created_at FROM events WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.CallID, &ev.Line, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// AppendJournal records a call. Seq and CreatedAt are assigned here.
func (t *Tx) AppendJournal(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	e.CreatedAt = time.Now().UTC()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO journal (call_id, method, env, args, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.CallID, e.Method, string(e.Env), string(e.Args), string(e.Result), e.CreatedAt)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("failed to append journal entry: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return JournalEntry{}, fmt.Errorf("failed to read journal seq: %w", err)
	}
	return e, nil
}

// Journal pages through recorded calls after seq.
func (t *Tx) Journal(ctx context.Context, afterSeq int64, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := t.tx.QueryContext(ctx,
		`SELECT seq, call_id, method, env, args, result, created_at FROM journal WHERE seq > ? ORDER BY seq LIMIT ?`,
		afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e                 JournalEntry
			env, args, result string
		)
		if err := rows.Scan(&e.Seq, &e.CallID, &e.Method, &env, &args, &result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Env = json.RawMessage(env)
		e.Args = json.RawMessage(args)
		e.Result = json.RawMessage(result)
		out = append(out, e)
	}
	return out, rows.Err()
}
