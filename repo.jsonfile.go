package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"
)

// jsonBookStorage keeps all books into a single json document on disk.
// The file is read on every call. The mutex serializes each read-modify-write
// cycle so concurrent requests never lose an update.
type jsonBookStorage struct {
	logger *zap.Logger
	path   string
	mu     sync.Mutex
}

// NewJSONBookStorage provides an instance of json file based book storage.
// It creates an empty document when the file does not exist yet.
func NewJSONBookStorage(logger *zap.Logger, path string) (BookStorage, error) {
	js := &jsonBookStorage{logger: logger, path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = ResetDatabase(path, Document{Books: []Book{}}); err != nil {
			return nil, err
		}
		logger.Info("books database file created", zap.String("store.path", path))
	}
	return js, nil
}

// load reads and decodes the document. A missing or empty file is an empty document.
func (js *jsonBookStorage) load() (Document, error) {
	doc := Document{Books: []Book{}}
	data, err := os.ReadFile(js.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return doc, nil
	}
	if err != nil {
		return doc, &PersistenceError{Op: "read", Path: js.path, Err: err}
	}
	if err = json.Unmarshal(data, &doc); err != nil {
		return doc, &PersistenceError{Op: "decode", Path: js.path, Err: err}
	}
	if doc.Books == nil {
		doc.Books = []Book{}
	}
	return doc, nil
}

func (js *jsonBookStorage) save(doc Document) error {
	return ResetDatabase(js.path, doc)
}

func indexOf(books []Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new book record to the document.
func (js *jsonBookStorage) Add(ctx context.Context, id string, book Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	doc, err := js.load()
	if err != nil {
		return err
	}
	if indexOf(doc.Books, id) >= 0 {
		return ErrBookAlreadyExists
	}
	book.ID = id
	doc.Books = append(doc.Books, book)
	return js.save(doc)
}

// GetOne retrieves a book record based on its ID.
func (js *jsonBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	doc, err := js.load()
	if err != nil {
		return Book{}, err
	}
	i := indexOf(doc.Books, id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	return doc.Books[i], nil
}

// Delete removes a book record based on its ID. Remaining books keep their order.
func (js *jsonBookStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	doc, err := js.load()
	if err != nil {
		return err
	}
	i := indexOf(doc.Books, id)
	if i < 0 {
		return ErrBookNotFound
	}
	doc.Books = append(doc.Books[:i], doc.Books[i+1:]...)
	return js.save(doc)
}

// Update replaces the fields of an existing book. The id and the
// position of the book into the document never change.
func (js *jsonBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	doc, err := js.load()
	if err != nil {
		return Book{}, err
	}
	i := indexOf(doc.Books, id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	book.ID = id
	doc.Books[i] = book
	if err = js.save(doc); err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetAll retrieves the list of all books in insertion order.
func (js *jsonBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	doc, err := js.load()
	if err != nil {
		return nil, err
	}
	return doc.Books, nil
}
