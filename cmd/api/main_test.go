package main

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestRunRejectsBadShardCountBeforeOpeningStore(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("LOCK_SHARDS", "3")

	assert.Equal(t, 1, run())
	assert.Zero(t, mr.TotalConnectionCount(), "store must not be opened when the registry cannot be built")
}

func TestRunBadConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "nope")
	assert.Equal(t, 1, run())
}

func TestRunUnreachableStore(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", addr)

	assert.Equal(t, 1, run())
}
