package keylock

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Registry maps keys to exclusive slots. The zero value is not usable; build
// one with New or NewString.
type Registry[K comparable] struct {
	shards []shard[K]
	mask   uint64
	hash   func(K) uint64
	onWait func(time.Duration)
	count  atomic.Int64
}

type shard[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

type slot struct {
	mu sync.Mutex
}

// New builds a Registry that places keys into shards using hash.
func New[K comparable](hash func(K) uint64, opts ...Option) (*Registry[K], error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	r := &Registry[K]{
		shards: make([]shard[K], o.shardCount),
		mask:   uint64(o.shardCount - 1),
		hash:   hash,
		onWait: o.onWait,
	}
	for i := range r.shards {
		r.shards[i].slots = make(map[K]*slot)
	}
	return r, nil
}

// NewString builds a Registry keyed by strings.
func NewString(opts ...Option) (*Registry[string], error) {
	return New(xxhash.Sum64String, opts...)
}

// Int64Hash hashes integer keys for New.
func Int64Hash(k int64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(k))
	return xxhash.Sum64(b[:])
}

// slotFor returns the slot for key, creating it under the shard mutex so that
// concurrent first callers all observe the same slot.
func (r *Registry[K]) slotFor(key K) *slot {
	s := &r.shards[r.hash(key)&r.mask]
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
		r.count.Add(1)
	}
	return sl
}

// Len reports how many distinct keys have been seen.
func (r *Registry[K]) Len() int {
	return int(r.count.Load())
}

// Run is RunExclusive for actions that only return an error.
func (r *Registry[K]) Run(key K, action func() error) error {
	_, err := RunExclusive(r, key, func() (struct{}, error) {
		return struct{}{}, action()
	})
	return err
}

// RunExclusive runs action while holding the slot for key and returns its
// result unchanged. The slot is released on every exit path, panics included.
func RunExclusive[K comparable, T any](r *Registry[K], key K, action func() (T, error)) (T, error) {
	sl := r.slotFor(key)

	start := time.Now()
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if r.onWait != nil {
		r.onWait(time.Since(start))
	}

	return action()
}
