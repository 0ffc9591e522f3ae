// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package tablestore keeps named code tables on disk so that a table
// derived from one file can be used to compress another.
//
// Keys:
//
//	book/<name>  the table in container.MarshalBook form
//	sum/<hex>    the first name stored with that fingerprint
package tablestore

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"

	"github.com/elliotnunn/huffbin/internal/container"
	"github.com/elliotnunn/huffbin/internal/hufftree"
)

var (
	ErrNotFound = errors.New("no such table")
	ErrBadName  = errors.New("table name must be non-empty and free of slashes")
)

const (
	bookPrefix = "book/"
	bookEnd    = "book0" // '/'+1
	sumPrefix  = "sum/"
	cacheSize  = 64
)

// A Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db *pebble.DB

	mu    sync.Mutex
	cache *tinylfu.T[uint64, hufftree.Book] // keyed by fingerprint, so never stale
}

type Entry struct {
	Name    string
	Sum     uint64
	Symbols int
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening table store %s: %w", dir, err)
	}
	return &Store{
		db:    db,
		cache: tinylfu.New[uint64, hufftree.Book](cacheSize, cacheSize*10, sumHasher),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint identifies a table by the hash of its stored form.
func Fingerprint(b hufftree.Book) uint64 {
	return xxhash.Sum64(container.MarshalBook(b))
}

func sumHasher(k uint64) uint64 { return k }

func bookKey(name string) []byte { return []byte(bookPrefix + name) }

func sumKey(sum uint64) []byte { return fmt.Appendf(nil, "%s%016x", sumPrefix, sum) }

func checkName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

// Put stores b under name, replacing any table already there, and returns its fingerprint.
func (s *Store) Put(name string, b hufftree.Book) (uint64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	blob := container.MarshalBook(b)
	sum := xxhash.Sum64(blob)

	old, had, err := s.storedSum(name)
	if err != nil {
		return 0, err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if had && old != sum {
		if err := s.unindex(batch, name, old); err != nil {
			return 0, err
		}
	}
	batch.Set(bookKey(name), blob, nil)
	if _, err := s.lookup(sum); errors.Is(err, ErrNotFound) {
		batch.Set(sumKey(sum), []byte(name), nil)
	} else if err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}

	s.remember(sum, b)
	return sum, nil
}

// storedSum fingerprints the table currently stored under name.
func (s *Store) storedSum(name string) (sum uint64, ok bool, err error) {
	blob, closer, err := s.db.Get(bookKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	defer closer.Close()
	return xxhash.Sum64(blob), true, nil
}

// unindex drops the sum/ record for sum if it points at name.
func (s *Store) unindex(batch *pebble.Batch, name string, sum uint64) error {
	owner, err := s.lookup(sum)
	if errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if owner == name {
		batch.Delete(sumKey(sum), nil)
	}
	return nil
}

// Get returns the table stored under name.
// Tables are shared with the cache and must not be modified.
func (s *Store) Get(name string) (hufftree.Book, error) {
	if err := checkName(name); err != nil {
		return hufftree.Book{}, err
	}
	blob, closer, err := s.db.Get(bookKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return hufftree.Book{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return hufftree.Book{}, err
	}
	defer closer.Close()
	b, _, err := s.decode(blob)
	if err != nil {
		return hufftree.Book{}, fmt.Errorf("table %s: %w", name, err)
	}
	return b, nil
}

// decode parses a stored blob, skipping the work when the same content was seen before.
func (s *Store) decode(blob []byte) (hufftree.Book, uint64, error) {
	sum := xxhash.Sum64(blob)
	s.mu.Lock()
	b, ok := s.cache.Get(sum)
	s.mu.Unlock()
	if ok {
		return b, sum, nil
	}

	b, err := container.UnmarshalBook(blob)
	if err != nil {
		return hufftree.Book{}, 0, err
	}
	s.remember(sum, b)
	return b, sum, nil
}

func (s *Store) remember(sum uint64, b hufftree.Book) {
	s.mu.Lock()
	s.cache.Add(sum, b)
	s.mu.Unlock()
}

func (s *Store) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	sum, ok, err := s.storedSum(name)
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := s.unindex(batch, name, sum); err != nil {
		return err
	}
	batch.Delete(bookKey(name), nil)
	return batch.Commit(pebble.Sync)
}

// List returns every stored table in name order.
func (s *Store) List() ([]Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(bookPrefix),
		UpperBound: []byte(bookEnd),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ret []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		name := strings.TrimPrefix(string(iter.Key()), bookPrefix)
		v, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}
		b, sum, err := s.decode(v)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		ret = append(ret, Entry{Name: name, Sum: sum, Symbols: len(b.Codes)})
	}
	return ret, iter.Error()
}

// Lookup finds the name under which a table with this fingerprint was first stored.
func (s *Store) Lookup(sum uint64) (string, error) {
	return s.lookup(sum)
}

func (s *Store) lookup(sum uint64) (string, error) {
	v, closer, err := s.db.Get(sumKey(sum))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", fmt.Errorf("%w: fingerprint %016x", ErrNotFound, sum)
	} else if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(v), nil
}
