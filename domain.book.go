package main

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrBookAlreadyExists = errors.New("book already exists")
	ErrInvalidBookID     = errors.New("book id provided is not valid")
)

// Book represents a book entity.
type Book struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Years int    `json:"years"`
	Pages int    `json:"pages"`
}

// BookInput holds the client provided fields of a book.
type BookInput struct {
	Title string
	Years int
	Pages int
}

// Document is the layout of the books database file.
type Document struct {
	Books []Book `json:"books"`
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

// ValidationError reports a missing or malformed book field.
type ValidationError struct {
	Field  string
	Reason string
}

func (v *ValidationError) Error() string {
	return v.Field + " " + v.Reason
}

func missingFieldError(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// PersistenceError wraps any failure to read or write the backing store.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (p *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", p.Op, p.Path, p.Err)
}

func (p *PersistenceError) Unwrap() error {
	return p.Err
}
