// Package storage provides SQLite exchange storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/ollamabridge/llm"
)

// SqliteStorage implements ExchangeStore using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			runtime TEXT NOT NULL,
			model TEXT NOT NULL,
			response TEXT,
			stop_reason TEXT,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_exchanges_created
		ON exchanges(created_at DESC);

		CREATE TABLE IF NOT EXISTS exchange_messages (
			exchange_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (exchange_id) REFERENCES exchanges(id) ON DELETE CASCADE,
			PRIMARY KEY (exchange_id, message_index)
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores an exchange and its readable request messages.
func (s *SqliteStorage) Record(ctx context.Context, ex Exchange) (Exchange, error) {
	ex = withDefaults(ex)

	// Start transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO exchanges
			(id, runtime, model, response, stop_reason, input_tokens, output_tokens, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Runtime, ex.Model, nullString(string(ex.Response)), nullString(ex.StopReason),
		ex.InputTokens, ex.OutputTokens, nullString(ex.Error), ex.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to insert exchange: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO exchange_messages (exchange_id, message_index, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range ex.Request {
		if _, err := stmt.ExecContext(ctx, ex.ID, i, msg.Role, msg.Content); err != nil {
			return Exchange{}, fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Exchange{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ex, nil
}

// Recent lists up to limit exchanges, newest first.
func (s *SqliteStorage) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		return []Exchange{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, runtime, model, response, stop_reason, input_tokens, output_tokens, error, created_at
		FROM exchanges
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []Exchange{}
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchanges: %w", err)
	}

	for i := range exchanges {
		msgs, err := s.loadMessages(ctx, exchanges[i].ID)
		if err != nil {
			return nil, err
		}
		exchanges[i].Request = msgs
	}

	return exchanges, nil
}

// Get returns one exchange by id.
func (s *SqliteStorage) Get(ctx context.Context, id string) (Exchange, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, runtime, model, response, stop_reason, input_tokens, output_tokens, error, created_at
		FROM exchanges WHERE id = ?`,
		id,
	)
	ex, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exchange{}, ErrExchangeNotFound
	}
	if err != nil {
		return Exchange{}, err
	}

	ex.Request, err = s.loadMessages(ctx, id)
	if err != nil {
		return Exchange{}, err
	}
	return ex, nil
}

// Prune deletes exchanges created before cutoff.
func (s *SqliteStorage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM exchanges WHERE created_at < ?",
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune exchanges: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned exchanges: %w", err)
	}
	return n, nil
}

func (s *SqliteStorage) loadMessages(ctx context.Context, exchangeID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM exchange_messages WHERE exchange_id = ? ORDER BY message_index",
		exchangeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{}
	for rows.Next() {
		var msg llm.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (Exchange, error) {
	var (
		ex         Exchange
		response   sql.NullString
		stopReason sql.NullString
		errText    sql.NullString
		createdAt  int64
	)
	err := row.Scan(&ex.ID, &ex.Runtime, &ex.Model, &response, &stopReason,
		&ex.InputTokens, &ex.OutputTokens, &errText, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Exchange{}, err
	}
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to scan exchange: %w", err)
	}
	if response.Valid {
		ex.Response = []byte(response.String)
	}
	ex.StopReason = stopReason.String
	ex.Error = errText.String
	ex.CreatedAt = time.UnixMilli(createdAt)
	return ex, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Verify SqliteStorage implements ExchangeStore
var _ ExchangeStore = (*SqliteStorage)(nil)
