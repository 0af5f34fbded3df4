// Package pending provides the client-side persistence layer for
// optimistic posts.
//
// # Overview
//
// The optimistic store (internal/client/optimistic) keeps pending posts in
// memory and hands the storage-safe projection of the whole list
// (models.PostRecord) to a Repository after every status change. On start
// the list is loaded back and hydrated into a fresh store.
//
// Only the projection is stored: local file handles and preview references
// never reach disk.
//
// All implementations share one namespace, Namespace. The SQLite
// implementation stores it as the optimistic_posts table, the Pebble
// implementation as a key prefix.
//
// Key Types
//
//   - type Repository        contract used by the store and the CLI bootstrap
//   - type SQLiteRepository  SQLite implementation over dbx.DBTX
//   - type PebbleRepository  Pebble key/value implementation
//
// Typical Usage
//
//	repo, _ := pending.OpenSQLite(ctx, "postkeeper.db")
//	defer repo.Close()
//	records, _ := repo.LoadAll(ctx)
//	store.Hydrate(records)
package pending
