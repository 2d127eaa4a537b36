// Package watch reports changes to mod files in a directory.
//
// A Watcher wraps fsnotify on a single directory, keeps only files with the
// mod extension, and coalesces bursts of events on the same path into one
// Event delivered after a quiet period. Editors that save by writing a
// temporary file and renaming it produce a single Event.
package watch
