package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks string = "books"
	// ZBooksOrder scores each book id with its insertion sequence.
	ZBooksOrder string = "books:order"
	// KBooksSeq is the counter providing insertion sequences.
	KBooksSeq string = "books:seq"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// maxTxRetries bounds the attempts of an optimistic transaction on the books hash.
const maxTxRetries = 50

// watch runs fn as an optimistic transaction on keys and retries it when a
// concurrent writer modified them first.
func (rs *redisBookStorage) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := rs.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

// Add inserts a new book record. It never overwrites an existing id.
// The record and its order entry are written in one transaction.
func (rs *redisBookStorage) Add(ctx context.Context, id string, book Book) error {
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	seq, err := rs.client.Incr(ctx, KBooksSeq).Result()
	if err != nil {
		return &PersistenceError{Op: "add", Path: HBooks, Err: err}
	}
	err = rs.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, HBooks, id).Result()
		if err != nil {
			return err
		}
		if exists {
			return ErrBookAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, id, bookBytes)
			pipe.ZAdd(ctx, ZBooksOrder, redis.Z{Score: float64(seq), Member: id})
			return nil
		})
		return err
	}, HBooks)
	if errors.Is(err, ErrBookAlreadyExists) {
		return ErrBookAlreadyExists
	}
	if err != nil {
		return &PersistenceError{Op: "add", Path: HBooks, Err: err}
	}
	return nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, id).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, &PersistenceError{Op: "get", Path: HBooks, Err: err}
	}
	if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
		return Book{}, &PersistenceError{Op: "decode", Path: HBooks, Err: err}
	}
	return book, nil
}

// Delete removes a book record and its order entry based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.HDel(ctx, HBooks, id)
		pipe.ZRem(ctx, ZBooksOrder, id)
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "delete", Path: HBooks, Err: err}
	}
	if del.Val() == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces existing book record data. The existence check and the
// write run into a single optimistic transaction on the books hash.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	err = rs.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, HBooks, id).Result()
		if err != nil {
			return err
		}
		if !exists {
			return ErrBookNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, HBooks, id, bookBytes)
			return nil
		})
		return err
	}, HBooks)
	if errors.Is(err, ErrBookNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, &PersistenceError{Op: "update", Path: HBooks, Err: err}
	}
	return book, nil
}

// GetAll retrieves all books stored in the redis database in insertion order.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	ids, err := rs.client.ZRange(ctx, ZBooksOrder, 0, -1).Result()
	if err != nil {
		return nil, &PersistenceError{Op: "list", Path: ZBooksOrder, Err: err}
	}
	if len(ids) == 0 {
		return books, nil
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, &PersistenceError{Op: "list", Path: HBooks, Err: err}
	}
	for _, value := range values {
		bookJSONString, ok := value.(string)
		if !ok {
			// deleted between both reads.
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, &PersistenceError{Op: "decode", Path: HBooks, Err: err}
		}
		books = append(books, book)
	}
	return books, nil
}
