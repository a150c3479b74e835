package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

// collection is an in-memory slice guarded by one lock. When path is set every
// write rewrites the whole collection to disk.
type collection[T any] struct {
	mu    sync.RWMutex
	items []T
	path  string
}

func newCollection[T any](dir, name string) (*collection[T], error) {
	c := &collection[T]{}
	if dir == "" {
		return c, nil
	}

	c.path = filepath.Join(dir, name+".json")
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return c, nil
	}

	if err := json.Unmarshal(data, &c.items); err != nil {
		// A corrupt snapshot starts empty, the next write replaces it.
		telemetry.Logger.Warn("Discarding unreadable collection snapshot",
			zap.String("path", c.path),
			zap.Error(err),
		)
		c.items = nil
	}
	return c, nil
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// mutate runs fn under the write lock and persists the result if fn succeeds.
func (c *collection[T]) mutate(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(c.items)
	if err != nil {
		return err
	}
	if err := c.persist(next); err != nil {
		return err
	}
	c.items = next
	return nil
}

func (c *collection[T]) persist(items []T) error {
	if c.path == "" {
		return nil
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, c.path)
}
