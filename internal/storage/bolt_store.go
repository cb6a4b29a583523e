package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"
	bolt "go.etcd.io/bbolt"
)

const (
	plateBucket      = "plates"
	expirationBucket = "expirations"
	reminderBucket   = "reminders"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	reminderTTL     time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{plateBucket, expirationBucket, reminderBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		reminderTTL:     opts.ReminderTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// AddPlate adds plate to the watchlist.
func (b *boltStore) AddPlate(plate string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, plateBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(plate), []byte{})
	})
}

// RemovePlate drops plate from the watchlist and reports whether it was present.
// The last known expiration is kept.
func (b *boltStore) RemovePlate(plate string) (bool, error) {
	var removed bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, plateBucket)
		if err != nil {
			return err
		}
		if bucket.Get([]byte(plate)) == nil {
			return nil
		}
		removed = true
		return bucket.Delete([]byte(plate))
	})
	return removed, err
}

// Plates returns the watched plates in lexical order.
func (b *boltStore) Plates() ([]string, error) {
	var plates []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, plateBucket)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, _ []byte) error {
			plates = append(plates, string(k))
			return nil
		})
	})
	sort.Strings(plates)
	return plates, err
}

// LastExpiration returns the expiration recorded for plate, if any.
func (b *boltStore) LastExpiration(plate string) (civil.Date, bool, error) {
	var (
		date  civil.Date
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, expirationBucket)
		if err != nil {
			return err
		}
		value := bucket.Get([]byte(plate))
		if len(value) == 0 {
			return nil
		}
		d, err := civil.ParseDate(string(value))
		if err != nil {
			return fmt.Errorf("decode expiration for %s: %w", plate, err)
		}
		date, found = d, true
		return nil
	})
	return date, found, err
}

// RecordExpiration stores date as the latest known expiration of plate.
// It does not change the watchlist.
func (b *boltStore) RecordExpiration(plate string, date civil.Date) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, expirationBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(plate), []byte(date.String()))
	})
}

// SeenReminder checks if a reminder with the given ID was sent and has not expired.
func (b *boltStore) SeenReminder(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, reminderBucket)
		if err != nil {
			return err
		}

		key := []byte(id)
		value := bucket.Get(key)
		if value == nil {
			exists = false
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(time.Now()) {
			exists = false
			return bucket.Delete(key)
		}

		exists = true
		return nil
	})
	return exists, err
}

// MarkReminder records a sent reminder for the configured TTL.
func (b *boltStore) MarkReminder(id string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, reminderBucket)
		if err != nil {
			return err
		}
		buf := make([]byte, expiryValueBytes)
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.reminderTTL).Unix()))
		return bucket.Put([]byte(id), buf)
	})
}

// maybeCleanupExpired removes expired reminder markers on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, reminderBucket)
		if err != nil {
			return err
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func bucketOf(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bucket, nil
}

// decodeExpiry decodes the expiry time from the stored byte slice.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
