// Package keylock serializes work per key inside one process.
//
// A Registry hands out one exclusive slot per key. Slots are created on first
// use and live as long as the Registry; the slot map is split into shards
// chosen by an xxhash of the key so that inserting a new key only contends with
// keys in the same shard. Work for different keys never waits on each other.
//
// Slots are not reentrant: calling RunExclusive for a key from inside an action
// already holding that key deadlocks, the same as sync.Mutex. There is no
// timeout and no cancellation; a waiter blocks until the holder returns.
package keylock
