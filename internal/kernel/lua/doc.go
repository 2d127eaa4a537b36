// Package lua hosts the single gopher-lua runtime shared by every mod.
//
// Mod source is evaluated with Eval, which compiles the chunk and runs it
// with a fresh environment table. Globals a mod assigns land in its own
// environment; reads fall through to the shared globals. Values installed on
// the shared runtime (for example through addApi) are therefore visible to
// every later mod.
//
// gopher-lua's LState is not goroutine-safe. A State must only be used from
// the goroutine that drives the kernel.
package lua
