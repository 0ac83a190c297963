package store

import "github.com/ethereum/go-ethereum/ethdb/memorydb"

// MemoryDB is an in-memory Database backed by go-ethereum's memorydb.
type MemoryDB struct {
	db *memorydb.Database
}

// NewMemoryDB creates an empty in-memory database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{db: memorydb.New()}
}

func (m *MemoryDB) Has(key []byte) (bool, error) { return m.db.Has(key) }

func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	v, err := m.db.Get(key)
	if err != nil {
		// memorydb reports a miss with an unexported error; only a
		// successful Has returning false is a miss.
		if ok, herr := m.db.Has(key); herr == nil && !ok {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (m *MemoryDB) Put(key, value []byte) error { return m.db.Put(key, value) }

func (m *MemoryDB) Delete(key []byte) error { return m.db.Delete(key) }

func (m *MemoryDB) Close() error { return m.db.Close() }

// Len returns the number of stored keys.
func (m *MemoryDB) Len() int { return m.db.Len() }

func (m *MemoryDB) NewBatch() Batch { return m.db.NewBatch() }
