// Package redis provides a Redis-backed TrailStore and DistributedLocker.
//
// Trails are stored as JSON under "<prefix><session-id>" with an optional TTL,
// which doubles as session expiry. A sorted set "<prefix>index" tracks stored
// sessions for List.
package redis
