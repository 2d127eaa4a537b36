// Package intercept multiplexes many independently owned wrappers onto one
// host entry point.
//
// The host exposes its interceptable operations as members of an Object and
// always calls them through Object.Call. The first Wrap of an
// (object, member) pair captures the member's original behavior and installs
// a dispatcher in its place. Every call through the dispatcher follows one
// rule, implemented by Invoke:
//
//  1. call the original, unless at least one owner asked to overwrite it
//  2. call every wrapper, in the order owners first wrapped the member
//
// Wrappers observe or augment; they never replace each other, and a second
// Wrap by the same owner replaces only that owner's wrapper. When the last
// wrapper of an entry is removed the entry is discarded and the member is
// restored to its original behavior.
package intercept
