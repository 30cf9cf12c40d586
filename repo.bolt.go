package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{config.BoltDB.BucketName, recordsBucketName(config.BoltDB.BucketName)} {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// recordsBucketName is the bucket holding the books payloads keyed by insertion sequence.
// The main bucket maps each book id to its sequence key.
func recordsBucketName(bucket string) string {
	return bucket + ".records"
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

func (bs *boltBookStorage) buckets(tx *bolt.Tx) (ids *bolt.Bucket, records *bolt.Bucket) {
	return tx.Bucket([]byte(bs.config.BucketName)), tx.Bucket([]byte(recordsBucketName(bs.config.BucketName)))
}

// seqKey encodes a sequence in big endian so keys iterate in insertion order.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Add inserts a new book record into boltdb store.
func (bs *boltBookStorage) Add(ctx context.Context, id string, book Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		ids, records := bs.buckets(tx)
		if ids.Get([]byte(id)) != nil {
			return ErrBookAlreadyExists
		}
		seq, err := records.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err = records.Put(key, bookBytes); err != nil {
			return err
		}
		return ids.Put([]byte(id), key)
	})
	return bs.wrap("add", err)
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	var book Book
	if err := ctx.Err(); err != nil {
		return book, err
	}
	err := bs.client.View(func(tx *bolt.Tx) error {
		ids, records := bs.buckets(tx)
		key := ids.Get([]byte(id))
		if key == nil {
			return ErrBookNotFound
		}
		return json.Unmarshal(records.Get(key), &book)
	})
	if err != nil {
		return Book{}, bs.wrap("get", err)
	}
	return book, nil
}

// Delete removes a book record based on its ID from boltdb store.
func (bs *boltBookStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := bs.client.Update(func(tx *bolt.Tx) error {
		ids, records := bs.buckets(tx)
		key := ids.Get([]byte(id))
		if key == nil {
			return ErrBookNotFound
		}
		if err := records.Delete(key); err != nil {
			return err
		}
		return ids.Delete([]byte(id))
	})
	return bs.wrap("delete", err)
}

// Update replaces existing book record data in place. It fails if the book does not exist.
func (bs *boltBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		ids, records := bs.buckets(tx)
		key := ids.Get([]byte(id))
		if key == nil {
			return ErrBookNotFound
		}
		return records.Put(key, bookBytes)
	})
	if err != nil {
		return Book{}, bs.wrap("update", err)
	}
	return book, nil
}

// GetAll retrieves all books stored in the bolt database in insertion order.
func (bs *boltBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		_, records := bs.buckets(tx)
		return records.ForEach(func(_, v []byte) error {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				return err
			}
			books = append(books, book)
			return nil
		})
	})
	if err != nil {
		return nil, bs.wrap("list", err)
	}
	return books, nil
}

// wrap keeps domain errors as is and reports everything else as persistence failure.
func (bs *boltBookStorage) wrap(op string, err error) error {
	if err == nil || err == ErrBookNotFound || err == ErrBookAlreadyExists {
		return err
	}
	return &PersistenceError{Op: op, Path: bs.config.FilePath, Err: err}
}
