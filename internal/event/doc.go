// Package event provides the cancelable fan-out notification bus that lets
// mods observe or veto host lifecycle moments.
//
// An Event is created by the host immediately before (or after) a lifecycle
// action such as "projectCreating" and dispatched to every target:
//
//	                      Dispatch(e, modListeners...)
//	                                 │
//	       ┌─────────────────────────┼─────────────────────────┐
//	       ▼                         ▼                         ▼
//	 mod listeners             mod listeners            registered targets
//	 (registry order)          (registry order)         (registration order)
//
// Delivery never stops early. A listener that cancels a cancelable event only
// changes the value Dispatch returns; every later target still receives the
// event. The host proceeds with its default action only when Dispatch
// returns true.
//
// The bus is not safe for concurrent use. It is driven from the host's
// event loop like the rest of the kernel.
package event
