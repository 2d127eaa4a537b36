package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// FileKV stores every key as a string member of one JSON object on disk.
//
// The document is read once at open and rewritten wholesale on every Set.
// A missing or unparsable file starts the store empty; the broken file is
// overwritten on the next Set.
type FileKV struct {
	mu        sync.Mutex
	path      string
	doc       []byte
	recovered bool
	closed    bool
}

// OpenFile opens (or prepares to create) the JSON document at path.
func OpenFile(path string) (*FileKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)

	kv := &FileKV{path: path, doc: []byte("{}")}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject() {
			kv.doc = data
		} else {
			kv.recovered = true
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read storage file: %w", err)
	}

	return kv, nil
}

// Path returns the document path.
func (f *FileKV) Path() string {
	return f.path
}

// Recovered reports whether the document on disk was unreadable at open
// and the store started empty.
func (f *FileKV) Recovered() bool {
	return f.recovered
}

// Get implements KV.
func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", false, ErrClosed
	}

	res := gjson.GetBytes(f.doc, gjson.Escape(key))
	if !res.Exists() || res.Type != gjson.String {
		return "", false, nil
	}
	return res.String(), true, nil
}

// Set implements KV.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	doc, err := sjson.SetBytes(f.doc, gjson.Escape(key), value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	doc = pretty.Pretty(doc)

	if err := writeAtomic(f.path, doc); err != nil {
		return err
	}
	f.doc = doc
	f.recovered = false
	return nil
}

// Close implements KV.
func (f *FileKV) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// writeAtomic writes data to a temp file beside path and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename storage file: %w", err)
	}
	return nil
}
