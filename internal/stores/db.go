package stores

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketDeposits  = []byte("deposits")
	bucketAddressed = []byte("addressed_deposits")
)

// DB is the shared bbolt database behind both escrow collections. Store
// methods take a *bolt.Tx so the escrow service can compose mutations of
// both collections, plus the outbound transfer, into one transaction:
// an error anywhere rolls everything back.
type DB struct {
	bolt *bolt.DB
}

func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketDeposits); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(bucketAddressed); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{bolt: db}, nil
}

func (d *DB) Update(fn func(tx *bolt.Tx) error) error {
	return d.bolt.Update(fn)
}

func (d *DB) View(fn func(tx *bolt.Tx) error) error {
	return d.bolt.View(fn)
}

func (d *DB) Close() error {
	return d.bolt.Close()
}

func itob(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
