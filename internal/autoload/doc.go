// Package autoload persists the set of mods that are reloaded at startup,
// together with the kernel-wide settings.
//
// The autoload set is one JSON object mapping mod id to the exact source
// text last loaded with autoload intent. It is stored under a single key and
// rewritten wholesale on every mutation, so member order in the document is
// insertion order and is the order mods are reloaded in.
package autoload
