// Package checkpoint persists export checkpoints in a key-value store.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/solrq/internal/db"
	"github.com/kailas-cloud/solrq/internal/domain"
	cp "github.com/kailas-cloud/solrq/internal/domain/checkpoint"
)

// store is the consumer interface for checkpoint storage (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores checkpoints as JSON under <prefix>checkpoint:<id>.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// New creates a checkpoint repository. ttl bounds how long an abandoned
// export can be resumed.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix + "checkpoint:", ttl: ttl, now: time.Now}
}

// Save writes the checkpoint and refreshes its TTL.
func (r *Repo) Save(ctx context.Context, c cp.Checkpoint) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s: %w", c.ID, err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(c.ID), data, r.ttl); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", c.ID, err)
	}
	return nil
}

// Get loads a checkpoint. A missing one is domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (cp.Checkpoint, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return cp.Checkpoint{}, fmt.Errorf("checkpoint %s: %w", id, domain.ErrNotFound)
		}
		return cp.Checkpoint{}, fmt.Errorf("get checkpoint %s: %w", id, err)
	}
	var c cp.Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return cp.Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", id, err)
	}
	return c, nil
}

// Delete removes a checkpoint.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", id, err)
	}
	return nil
}

// List returns the ids of stored checkpoints, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.prefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
