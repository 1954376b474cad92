package keylock

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

var ErrInvalidShardCount = errors.New("keylock: invalid shard count")

type Option func(*options)

type options struct {
	shardCount int
	onWait     func(time.Duration)
}

func defaultOptions() options {
	return options{shardCount: defaultShardCount}
}

// WithShardCount sets the number of map shards. n must be a power of two
// no larger than 65536.
func WithShardCount(n int) Option {
	return func(o *options) { o.shardCount = n }
}

// WithWaitObserver registers fn to be called with the time each caller spent
// waiting for its slot. fn runs while the slot is held and must not block.
func WithWaitObserver(fn func(time.Duration)) Option {
	return func(o *options) { o.onWait = fn }
}

func (o *options) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return nil
}
