// Package menu holds the per-mod menu hooks the host applies at its named
// menu extension points, and a host-agnostic Menu model for hooks to mutate.
//
// The host decides when a named menu (for example "projectMenu") is built and
// calls Registry.Apply on it; how the finished Menu is drawn is entirely the
// host's business.
package menu
