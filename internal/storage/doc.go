// Package storage provides the key-value persistence surface the kernel
// consumes from its host.
//
// Three implementations are provided:
//
//   - FileKV: a single JSON document on disk, one string value per key
//   - SQLiteKV: a kv table in a SQLite database
//   - MemoryKV: an in-process map, used by tests and the "memory" driver
//
// All writes are synchronous: Set returns only after the value is durable
// (for FileKV, after the document has been renamed into place).
package storage
