// Package cache provides a small bounded map with first-in-first-out
// eviction.
//
// BoundedCache backs the ffprobe metadata cache. Owners construct their own
// instance and inject it, so tests never share entries with each other.
package cache
