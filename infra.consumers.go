package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// popRetryDelay is the pause after a failed queue pop.
var popRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// mirrorConsumer replays the books changes received from the queues into a mirror storage.
type mirrorConsumer struct {
	logger *zap.Logger
	queue  Queuer
	repo   BookStorage
}

func NewMirrorConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &mirrorConsumer{logger, q, repo}
}

// Consume runs until the context is done. It never returns an error so a
// broken mirror does not stop the api server.
func (mc *mirrorConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := mc.queue.Pop(ctx, qids...)
		if ctx.Err() != nil {
			mc.logger.Info("consumer: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			mc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(popRetryDelay):
			}
			continue
		}

		mc.apply(ctx, qid, book)
	}
}

func (mc *mirrorConsumer) apply(ctx context.Context, qid string, book Book) {
	var err error
	switch qid {
	case CreateQueue:
		err = mc.repo.Add(ctx, book.ID, book)
		if errors.Is(err, ErrBookAlreadyExists) {
			_, err = mc.repo.Update(ctx, book.ID, book)
		}
	case UpdateQueue:
		_, err = mc.repo.Update(ctx, book.ID, book)
		if errors.Is(err, ErrBookNotFound) {
			err = mc.repo.Add(ctx, book.ID, book)
		}
	case DeleteQueue:
		err = mc.repo.Delete(ctx, book.ID)
		if errors.Is(err, ErrBookNotFound) {
			mc.logger.Warn("consumer: book already absent from mirror", zap.String("book.id", book.ID))
			err = nil
		}
	default:
		mc.logger.Warn("consumer: received book on unknown queue id", zap.String("qid", qid), zap.Any("book", book))
		return
	}
	if err != nil {
		mc.logger.Error("consumer: failed to apply change", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}
