package registry

import (
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// Cache is a bounded, bbolt-backed key-value cache shared by the embedding
// memoization cache (IM v1) and the SHACL validation-result cache (SV).
// The Design Notes in spec.md §9 leave both caches unbounded "as specified"
// and flag bounded eviction as an open question; this resolves it with a
// capacity cap and last-access eviction.
type Cache struct {
	db       *bbolt.DB
	bucket   []byte
	capacity int
}

const metaBucketSuffix = "__meta"

// OpenCache opens (creating if absent) a bucket named bucket in the bbolt
// file at path, bounded to capacity entries. A capacity of 0 means
// unbounded.
func OpenCache(path, bucket string, capacity int) (*Cache, error) {
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	c := &Cache{db: db, bucket: []byte(bucket), capacity: capacity}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(c.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(c.metaBucket())
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache buckets: %w", err)
	}
	return c, nil
}

func (c *Cache) metaBucket() []byte { return []byte(string(c.bucket) + metaBucketSuffix) }

// Close releases the underlying bbolt file handle.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached value for key, if present, and refreshes its
// last-access timestamp.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var value []byte
	found := false
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		value = append([]byte(nil), v...)
		return tx.Bucket(c.metaBucket()).Put([]byte(key), nowBytes())
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Put stores value under key, evicting the least-recently-accessed entry
// first if the cache is at capacity.
func (c *Cache) Put(key string, value []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		meta := tx.Bucket(c.metaBucket())

		if c.capacity > 0 && b.Get([]byte(key)) == nil {
			if n := b.Stats().KeyN; n >= c.capacity {
				if err := evictOldest(b, meta, n-c.capacity+1); err != nil {
					return err
				}
			}
		}
		if err := b.Put([]byte(key), value); err != nil {
			return err
		}
		return meta.Put([]byte(key), nowBytes())
	})
}

// Clear removes every entry from the cache.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(c.bucket); err != nil {
			return err
		}
		if err := tx.DeleteBucket(c.metaBucket()); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(c.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(c.metaBucket())
		return err
	})
}

// Stats returns the current entry count.
func (c *Cache) Stats() (count int, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(c.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func evictOldest(data, meta *bbolt.Bucket, n int) error {
	type entry struct {
		key       []byte
		lastUsed  string
	}
	var entries []entry
	cur := meta.Cursor()
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		entries = append(entries, entry{key: append([]byte(nil), k...), lastUsed: string(v)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].lastUsed < entries[j].lastUsed })
	for i := 0; i < n && i < len(entries); i++ {
		if err := data.Delete(entries[i].key); err != nil {
			return err
		}
		if err := meta.Delete(entries[i].key); err != nil {
			return err
		}
	}
	return nil
}

func nowBytes() []byte {
	return []byte(time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
}
