// Package cart keeps the client-side basket and reconciles it with the
// server-held cart.
//
// ARCHITECTURE:
//
// State lives in a Store. The only way to change it is Store.Dispatch with
// one of the typed actions (AddItem, RemoveItem, ClearItems, ReplaceItems);
// Dispatch runs the pure Reduce function under the store lock and stamps the
// result with the next sequence number.
//
// Service layers the remote side on top:
//
//	add/remove  → optimistic Dispatch → (authenticated) remote add/remove
//	add         → debounced resync (default 400ms)
//	resync      → GET /cart → union with local-only lines → POST /cart/sync
//	            → ReplaceItems with the server response
//
// Remote failures are logged and returned; optimistic local mutations are
// never rolled back.
//
// KNOWN RACE:
// A mutation dispatched while a resync is in flight is overwritten when the
// sync response is applied (last server write wins). Store.Apply detects
// this by comparing sequence numbers and Service logs the lost lines, those
// the response dropped or returned with a lower quantity. The behaviour
// itself is left as is.
package cart
