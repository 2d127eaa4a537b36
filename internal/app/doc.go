// Package app wires the mod kernel into a runnable host.
//
// An Application owns the configuration, storage, the kernel and its event
// loop, the mods directory watcher and a line-oriented console standing in
// for the host UI. Startup loads the autoload set first, then every mod file
// in the mods directory; a file holding a mod that is already autoloaded
// keeps it autoloaded.
package app
