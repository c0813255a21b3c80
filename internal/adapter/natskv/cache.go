// Package natskv implements the cache port on a NATS JetStream KV bucket,
// used as the shared L2 tier behind the in-process cache.
package natskv

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// headerLen is the size of the expiry stamp prefixed to every stored value.
const headerLen = 8

// Cache stores values in a KV bucket. The bucket TTL bounds every entry;
// shorter per-entry TTLs are enforced on read.
type Cache struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

var keyReplacer = strings.NewReplacer(":", ".", " ", "_")

// Key converts a cache key ("tenant:<id>") into a valid KV key ("tenant.<id>").
func Key(key string) string { return keyReplacer.Replace(key) }

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, Key(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, live := open(entry.Value(), c.now())
	if !live {
		_ = c.kv.Delete(ctx, Key(key))
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value; a zero ttl leaves expiry to the bucket.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}
	_, err := c.kv.Put(ctx, Key(key), seal(value, expires))
	return err
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, Key(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// seal prefixes value with its expiry in unix nanoseconds (0 = none).
func seal(value []byte, expires time.Time) []byte {
	out := make([]byte, headerLen+len(value))
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(out, uint64(expires.UnixNano()))
	}
	copy(out[headerLen:], value)
	return out
}

// open strips the expiry stamp. Entries that are expired or too short to
// carry a stamp are reported as not live.
func open(data []byte, now time.Time) ([]byte, bool) {
	if len(data) < headerLen {
		return nil, false
	}
	if stamp := binary.BigEndian.Uint64(data); stamp != 0 && now.UnixNano() >= int64(stamp) {
		return nil, false
	}
	return data[headerLen:], true
}
