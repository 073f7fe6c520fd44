package bounce

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/types"
)

var keyPrefix = []byte("bounce/")

// Cache remembers definite verdicts of the wrapped Checker in badger.
type Cache struct {
	db   *badger.DB
	next Checker
	log  *zap.Logger
}

// OpenCache opens (or creates) a verdict cache in dir. An empty dir keeps
// the cache in memory.
func OpenCache(dir string, next Checker, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, next: next, log: log}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

func cacheKey(email string) []byte {
	return append(append([]byte(nil), keyPrefix...), email...)
}

func (c *Cache) lookup(key []byte) (types.BounceStatus, error) {
	var st types.BounceStatus
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			st = types.BounceStatus(v)
			return nil
		})
	})
	return st, err
}

func (c *Cache) Check(ctx context.Context, email string) types.BounceStatus {
	key := cacheKey(email)
	st, err := c.lookup(key)
	switch {
	case err == nil && st != "":
		znmetrics.BounceCacheHits.Inc()
		return st
	case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
		c.log.Warn("bounce cache read failed", zap.Error(err))
	}

	st = c.next.Check(ctx, email)
	if st != types.StatusValid && st != types.StatusBounced {
		return st
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(st))
	}); err != nil {
		c.log.Warn("bounce cache write failed", zap.Error(err))
	}
	return st
}
