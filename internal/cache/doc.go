// Package cache stores synthesized audio in two tiers: an in-memory LRU
// (L1) and a zstd-compressed directory on disk (L2) that survives restarts.
package cache
