package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// sqliteBookStorage keeps one row per book. The seq column preserves insertion order.
type sqliteBookStorage struct {
	logger *zap.Logger
	db     *sql.DB
	path   string
}

// GetSQLiteClient opens the database file and creates the books table if needed.
func GetSQLiteClient(config *Config) (*sql.DB, error) {
	path := config.SQLite.FilePath
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes the writers.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS books (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create books table: %w", err)
	}
	return db, nil
}

// NewSQLiteBookStorage provides an instance of sqlite-based book storage.
func NewSQLiteBookStorage(logger *zap.Logger, path string, db *sql.DB) BookStorage {
	return &sqliteBookStorage{logger: logger, db: db, path: path}
}

func (ss *sqliteBookStorage) fail(op string, err error) error {
	return &PersistenceError{Op: op, Path: ss.path, Err: err}
}

// Add inserts a new book row. An existing id is left untouched.
func (ss *sqliteBookStorage) Add(ctx context.Context, id string, book Book) error {
	book.ID = id
	payload, err := json.Marshal(book)
	if err != nil {
		return err
	}
	res, err := ss.db.ExecContext(ctx, `INSERT INTO books (id, payload) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, payload)
	if err != nil {
		return ss.fail("add", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ss.fail("add", err)
	}
	if n == 0 {
		return ErrBookAlreadyExists
	}
	return nil
}

// GetOne retrieves a book record based on its ID.
func (ss *sqliteBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	var payload []byte
	err := ss.db.QueryRowContext(ctx, `SELECT payload FROM books WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, ss.fail("get", err)
	}
	if err = json.Unmarshal(payload, &book); err != nil {
		return Book{}, ss.fail("decode", err)
	}
	return book, nil
}

// Delete removes a book row based on its ID.
func (ss *sqliteBookStorage) Delete(ctx context.Context, id string) error {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return ss.fail("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ss.fail("delete", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces the payload of an existing book. Its seq is kept.
func (ss *sqliteBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	book.ID = id
	payload, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	res, err := ss.db.ExecContext(ctx, `UPDATE books SET payload = ? WHERE id = ?`, payload, id)
	if err != nil {
		return Book{}, ss.fail("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Book{}, ss.fail("update", err)
	}
	if n == 0 {
		return Book{}, ErrBookNotFound
	}
	return book, nil
}

// GetAll retrieves all books in insertion order.
func (ss *sqliteBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	rows, err := ss.db.QueryContext(ctx, `SELECT payload FROM books ORDER BY seq`)
	if err != nil {
		return nil, ss.fail("list", err)
	}
	defer func() { _ = rows.Close() }()

	books := []Book{}
	for rows.Next() {
		var payload []byte
		if err = rows.Scan(&payload); err != nil {
			return nil, ss.fail("scan", err)
		}
		var book Book
		if err = json.Unmarshal(payload, &book); err != nil {
			return nil, ss.fail("decode", err)
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, ss.fail("list", err)
	}
	return books, nil
}
