// Package store provides SQLite-backed persistence for client state that
// must survive between CLI invocations.
//
// Tables:
//   - session: the signed-in user, one row
//   - cookies: API session cookies, keyed by origin and name
//   - basket: the local cart snapshot and its sequence number, one row
//   - cart_journal: append-only record of cart actions and their remote outcome
//
// # Ordering
//
// The journal is read in insertion order (ORDER BY id ASC). Its seq column
// comes from the cart store's sequence, never from wall time.
//
// # Migrations
//
// PRAGMA user_version records how many entries of the migration list have
// run. Open applies the missing ones and refuses files from a newer client.
//
// Connections use WAL, synchronous=NORMAL, a 5s busy timeout and foreign
// keys.
package store
