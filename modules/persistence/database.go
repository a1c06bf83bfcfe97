package persistence

import (
	"errors"
	"path/filepath"

	"github.com/ugorji/go/codec"
	"go.etcd.io/bbolt"
)

const Filename = "persistence.bbolt"

var (
	ErrEmptyID     = errors.New("empty ID")
	ErrKeyNotFound = errors.New("key not found")

	mh codec.JsonHandle
)

type Database struct {
	db *bbolt.DB
}

func Open(datapath string) (*Database, error) {
	db, err := bbolt.Open(filepath.Join(datapath, Filename), 0666, nil)
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Objects must be able to return a unique key
type Identifiable interface {
	ID() string
}

// Objects can be able to have default values, triggered by calling Default
type Defaulter interface {
	Default()
}

// decode fills in defaults first, so fields missing from older records keep them
func decode[p any](data []byte, result *p) error {
	if isDefaulter, ok := any(result).(Defaulter); ok {
		isDefaulter.Default()
	}
	return codec.NewDecoderBytes(data, &mh).Decode(result)
}

type Store[i Identifiable] struct {
	db         *bbolt.DB
	cache      map[string]i
	bucketname []byte
}

func GetStorage[i Identifiable](d *Database, bucketname string, cached bool) Store[i] {
	s := Store[i]{
		db:         d.db,
		bucketname: []byte(bucketname),
	}
	if cached {
		s.cache = make(map[string]i)
	}
	return s
}

func (s Store[p]) Get(id string) (*p, bool) {
	var result p
	if s.cache != nil {
		if rv, found := s.cache[id]; found {
			return &rv, true
		}
	}
	var data []byte
	s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketname)
		if b == nil {
			return nil
		}
		// only valid inside the transaction
		if v := b.Get([]byte(id)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}
	if err := decode(data, &result); err != nil {
		return nil, false
	}
	if s.cache != nil {
		s.cache[id] = result
	}
	return &result, true
}

func (s Store[p]) Put(saveme p) error {
	return s.PutMany([]p{saveme})
}

// PutMany stores everything in one transaction
func (s Store[p]) PutMany(items []p) error {
	encoded := make([][]byte, len(items))
	for n, item := range items {
		if item.ID() == "" {
			return ErrEmptyID
		}
		if err := codec.NewEncoderBytes(&encoded[n], &mh).Encode(item); err != nil {
			return err
		}
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucketname)
		if err != nil {
			return err
		}
		for n, item := range items {
			if err = b.Put([]byte(item.ID()), encoded[n]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		for _, item := range items {
			s.cache[item.ID()] = item
		}
	}
	return nil
}

func (s Store[p]) Delete(id string) error {
	if s.cache != nil {
		delete(s.cache, id)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketname)
		if b == nil {
			return ErrKeyNotFound
		}
		if b.Get([]byte(id)) == nil {
			return ErrKeyNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s Store[p]) List() ([]p, error) {
	var result []p
	return result, s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucketname)
		if b == nil {
			return nil
		}
		// Pre-allocate the result slice to avoid re-allocations during iteration
		result = make([]p, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			var data p
			if err := decode(v, &data); err != nil {
				return err
			}
			result = append(result, data)
			return nil
		})
	})
}

func (s Store[p]) Count() (int, error) {
	var count int
	return count, s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(s.bucketname); b != nil {
			count = b.Stats().KeyN
		}
		return nil
	})
}
