// Package models defines persistence entities and data access interfaces for the concert cache.
//
// The package contains database-backed models with full lifecycle management:
//   - [CachedSetlist] : Cached concert setlists with artist and venue metadata
//   - [CachedTrack] : Resolved streaming tracks keyed for cross-concert reuse
//
// All persistent entities implement the Model interface providing ID access, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
//
// Transient concert and track data fetched from external services lives in the services package;
// only data worth caching between runs is modeled here.
package models
