// Package store persists converted trees on disk, keyed by source content,
// so that repeated runs over a tree skip unchanged files.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pierrec/lz4/v4"
	bolt "go.etcd.io/bbolt"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
)

const (
	fileMode    = 0o600
	openTimeout = time.Second

	codecRaw byte = 0
	codecLZ4 byte = 1

	// maxRatio bounds the lz4 block expansion ratio.
	maxRatio = 255
)

var bucketResults = []byte("results")

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("corrupt stored value")
)

// Key identifies a conversion: the same source converted with the same
// schema version and placeholder mode always yields the same tree.
func Key(src []byte, version ast.Version, placeholders bool) string {
	h := sha256.New()
	h.Write(src)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(int(version))))
	h.Write([]byte(strconv.FormatBool(placeholders)))

	return hex.EncodeToString(h.Sum(nil))
}

// Store is a bbolt-backed map from conversion keys to encoded results.
// It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, bucketErr := tx.CreateBucketIfNotExists(bucketResults)

		return bucketErr
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create bucket: %w", err), db.Close())
	}

	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Get returns the value stored under key. The boolean is false when the key
// is absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var stored []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketResults).Get([]byte(key))
		if v != nil {
			// bbolt slices are only valid within the transaction.
			stored = append([]byte(nil), v...)
		}

		return nil
	})
	if err != nil {
		return nil, false, wrapClosed(err)
	}

	if stored == nil {
		return nil, false, nil
	}

	value, err := decode(stored)
	if err != nil {
		return nil, false, fmt.Errorf("key %s: %w", key, err)
	}

	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key string, value []byte) error {
	encoded := encode(value)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).Put([]byte(key), encoded)
	})
	if err != nil {
		return wrapClosed(err)
	}

	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).Delete([]byte(key))
	})
	if err != nil {
		return wrapClosed(err)
	}

	return nil
}

// Len returns the number of stored results.
func (s *Store) Len() (int, error) {
	var n int

	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketResults).Stats().KeyN

		return nil
	})
	if err != nil {
		return 0, wrapClosed(err)
	}

	return n, nil
}

func wrapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}

	return fmt.Errorf("store: %w", err)
}

// encode prefixes the payload with a codec byte and the uncompressed length.
// Values lz4 cannot shrink are kept raw.
func encode(value []byte) []byte {
	header := make([]byte, 1, 1+binary.MaxVarintLen64)
	header = binary.AppendUvarint(header, uint64(len(value)))

	compressed := make([]byte, len(header)+lz4.CompressBlockBound(len(value)))
	copy(compressed, header)

	written, err := lz4.CompressBlock(value, compressed[len(header):], nil)
	if err != nil || written == 0 || written >= len(value) {
		header[0] = codecRaw

		return append(header, value...)
	}

	compressed[0] = codecLZ4

	return compressed[:len(header)+written]
}

func decode(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, ErrCorrupt
	}

	size, n := binary.Uvarint(stored[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length header", ErrCorrupt)
	}

	payload := stored[1+n:]

	switch stored[0] {
	case codecRaw:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("%w: raw length %d, want %d", ErrCorrupt, len(payload), size)
		}

		return payload, nil
	case codecLZ4:
		if size > uint64(len(payload))*maxRatio {
			return nil, fmt.Errorf("%w: length %d exceeds block bound", ErrCorrupt, size)
		}

		out := make([]byte, size)

		written, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}

		if uint64(written) != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, written, size)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, stored[0])
	}
}
