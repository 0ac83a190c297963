package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("zkbet")

// BoltDB is a Database in a single bbolt file.
type BoltDB struct {
	db *bolt.DB
}

// OpenBolt opens or creates dir/zkbet.db.
func OpenBolt(dir string) (*BoltDB, error) {
	if dir == "" {
		return nil, errors.New("store: bolt needs a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, "zkbet.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

func (d *BoltDB) Has(key []byte) (bool, error) {
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})
	return ok, err
}

func (d *BoltDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (d *BoltDB) Put(key, value []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (d *BoltDB) Delete(key []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

func (d *BoltDB) Close() error { return d.db.Close() }

func (d *BoltDB) NewBatch() Batch { return &boltBatch{db: d.db} }

type boltOp struct {
	key, value []byte
	del        bool
}

// boltBatch buffers writes and applies them in one read-write transaction.
type boltBatch struct {
	db   *bolt.DB
	ops  []boltOp
	size int
}

func (b *boltBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, boltOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	b.size += len(key) + len(value)
	return nil
}

func (b *boltBatch) Delete(key []byte) error {
	b.ops = append(b.ops, boltOp{key: append([]byte(nil), key...), del: true})
	b.size += len(key)
	return nil
}

func (b *boltBatch) ValueSize() int { return b.size }

func (b *boltBatch) Write() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(boltBucket)
		for _, op := range b.ops {
			var err error
			if op.del {
				err = bk.Delete(op.key)
			} else {
				err = bk.Put(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltBatch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}
