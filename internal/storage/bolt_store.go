package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var versionsBucket = []byte("record_versions")

// entry layout: 8-byte big-endian unix expiry followed by the version bytes.
const expiryPrefix = 8

var errNoBucket = errors.New("record versions bucket missing")

// boltStore keeps record versions in a single bbolt bucket. Expired entries
// read as missing and are swept out during writes.
type boltStore struct {
	db         *bolt.DB
	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	mu        sync.Mutex
	lastSweep time.Time
}

func openBolt(path string, opts Options, now func() time.Time) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(versionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create versions bucket: %w", err)
	}

	return &boltStore{
		db:         db,
		ttl:        opts.RecordTTL,
		sweepEvery: opts.CleanupInterval,
		now:        now,
		lastSweep:  now(),
	}, nil
}

func (b *boltStore) Version(key string) (string, bool, error) {
	now := b.now()
	var (
		version string
		found   bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(versionsBucket)
		if bucket == nil {
			return errNoBucket
		}
		v, expires, ok := decodeEntry(bucket.Get([]byte(key)))
		if ok && expires.After(now) {
			version, found = v, true
		}
		return nil
	})
	return version, found, err
}

func (b *boltStore) Put(key, version string) error {
	now := b.now()
	sweep := b.sweepDue(now)

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(versionsBucket)
		if bucket == nil {
			return errNoBucket
		}
		if err := bucket.Put([]byte(key), encodeEntry(version, now.Add(b.ttl))); err != nil {
			return err
		}
		if sweep {
			return sweepExpired(bucket, now)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store version of %s: %w", key, err)
	}
	return nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// sweepDue claims the sweep slot when the cleanup interval has passed.
func (b *boltStore) sweepDue(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.lastSweep) < b.sweepEvery {
		return false
	}
	b.lastSweep = now
	return true
}

func sweepExpired(bucket *bolt.Bucket, now time.Time) error {
	var stale [][]byte
	err := bucket.ForEach(func(k, v []byte) error {
		if _, expires, ok := decodeEntry(v); !ok || !expires.After(now) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func encodeEntry(version string, expires time.Time) []byte {
	buf := make([]byte, expiryPrefix+len(version))
	binary.BigEndian.PutUint64(buf, uint64(expires.Unix()))
	copy(buf[expiryPrefix:], version)
	return buf
}

func decodeEntry(raw []byte) (string, time.Time, bool) {
	if len(raw) < expiryPrefix {
		return "", time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(raw[:expiryPrefix]))
	if unix <= 0 {
		return "", time.Time{}, false
	}
	return string(raw[expiryPrefix:]), time.Unix(unix, 0), true
}
