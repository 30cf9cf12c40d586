package main

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context) ([]Book, error)
	Create(ctx context.Context, input BookInput) (Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, input BookInput) (Book, error)
	Delete(ctx context.Context, id string) error
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	ids     UIDHandler
	storage BookStorage
	queue   Queuer
}

// NewBookService provides the books service. A nil queue disables the changes mirroring.
func NewBookService(logger *zap.Logger, config *Config, ids UIDHandler, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		ids:     ids,
		storage: storage,
		queue:   queue,
	}
}

// publish pushes a successful change to the mirror queue. Failures are only logged.
func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

func (bs *BookService) List(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}

func (bs *BookService) Create(ctx context.Context, input BookInput) (Book, error) {
	book := Book{
		ID:    bs.ids.Generate(BookIDPrefix),
		Title: input.Title,
		Years: input.Years,
		Pages: input.Pages,
	}
	if err := bs.storage.Add(ctx, book.ID, book); err != nil {
		return Book{}, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) Get(ctx context.Context, id string) (Book, error) {
	if isBlankID(id) {
		return Book{}, ErrInvalidBookID
	}
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) Update(ctx context.Context, id string, input BookInput) (Book, error) {
	if isBlankID(id) {
		return Book{}, ErrInvalidBookID
	}
	book, err := bs.storage.Update(ctx, id, Book{ID: id, Title: input.Title, Years: input.Years, Pages: input.Pages})
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) error {
	if isBlankID(id) {
		return ErrInvalidBookID
	}
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

// isBlankID reports ids that cannot name any stored book. Other ids,
// uuid or not, are looked up as is.
func isBlankID(id string) bool {
	return strings.TrimSpace(id) == ""
}
