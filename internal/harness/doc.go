// Package harness replays basket scenarios against the fake backend.
//
// A scenario drives one client session (session manager, cart service and
// API client wired the way the CLI wires them) through a list of steps and
// records every request the backend served. The request log is the trace:
// assertions run against it and golden files pin it.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: guest_merge
//	description: "Guest basket is merged into the account cart on login"
//	setup:
//	  - do: server_cart
//	    email: alice@example.com
//	    items:
//	      - { perfume: p2, volume: 30, quantity: 1 }
//	flow:
//	  - do: add
//	    perfume: p1
//	    volume: 50
//	    quantity: 2
//	  - do: login
//	    email: alice@example.com
//	    expect:
//	      units: 3
//	assertions:
//	  - type: request_count
//	    request: POST /cart/sync
//	    count: 1
//	  - type: basket
//	    lines: { p2/30ml: 1, p1/50ml: 2 }
//
// # Steps
//
//   - login, logout: sign in (then reconcile) or sign out (then empty the basket)
//   - add, remove, clear, sync, load, flush: basket operations
//   - fire: run the armed resync timer
//   - expire: invalidate every server session
//   - fail: queue an injected status for method and path
//   - server_cart: replace a user's server cart (setup only makes sense)
//
// # Assertion Types
//
//   - request_count: a "METHOD /path" was served exactly count times
//   - request_order: requests were served in the given order
//   - basket: the final local basket lines
//   - server_cart: the final server cart lines of email
//   - session: whether the session ended signed in
//   - pending: armed, unfired resync timers
//
// # Deterministic Testing
//
// Idempotency keys come from a sequence generator (k-1, k-2, ...), the
// resync timer only fires on a fire step, and the fake backend numbers its
// ids per prefix. Traces are therefore identical across runs.
package harness
