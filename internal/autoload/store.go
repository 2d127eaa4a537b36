package autoload

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/modkernel/internal/storage"
)

// Persistence keys.
const (
	// ModsKey holds the serialized id -> source mapping.
	ModsKey = "autoload_mods"

	// SettingsKey holds the kernel-wide settings.
	SettingsKey = "settings"
)

// Entry is one persisted mod.
type Entry struct {
	ID     string
	Source string
}

// Store is the persisted autoload set.
type Store struct {
	kv     storage.KV
	logger *log.Logger
}

// NewStore creates a store backed by kv.
func NewStore(kv storage.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Add records source under id, replacing any previous source for id while
// keeping its position.
func (s *Store) Add(ctx context.Context, id, source string) error {
	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	doc, err = sjson.Set(doc, keyPath(id), source)
	if err != nil {
		return fmt.Errorf("autoload add %q: %w", id, err)
	}
	return s.write(ctx, doc)
}

// Remove drops id from the set. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	path := keyPath(id)
	if !gjson.Get(doc, path).Exists() {
		return nil
	}
	doc, err = sjson.Delete(doc, path)
	if err != nil {
		return fmt.Errorf("autoload remove %q: %w", id, err)
	}
	return s.write(ctx, doc)
}

// IsAutoloaded reports whether id is in the set.
func (s *Store) IsAutoloaded(ctx context.Context, id string) (bool, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return false, err
	}
	return gjson.Get(doc, keyPath(id)).Exists(), nil
}

// Source returns the persisted source for id.
func (s *Store) Source(ctx context.Context, id string) (string, bool, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return "", false, err
	}
	res := gjson.Get(doc, keyPath(id))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// All returns every entry in insertion order.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	gjson.Parse(doc).ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			s.logger.Warn("skipping non-string autoload entry", "id", key.String())
			return true
		}
		entries = append(entries, Entry{ID: key.String(), Source: value.String()})
		return true
	})
	return entries, nil
}

// keyPath turns id into a single-key gjson/sjson path. gjson.Escape leaves a
// leading ':' alone, which sjson reads as its force-object-key prefix.
func keyPath(id string) string {
	path := gjson.Escape(id)
	if strings.HasPrefix(path, ":") {
		path = `\` + path
	}
	return path
}

// read returns the persisted document, or "{}" when it is missing or corrupt.
func (s *Store) read(ctx context.Context) (string, error) {
	raw, ok, err := s.kv.Get(ctx, ModsKey)
	if err != nil {
		return "", fmt.Errorf("read autoload set: %w", err)
	}
	if !ok || raw == "" {
		return "{}", nil
	}
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		s.logger.Warn("autoload set is corrupt, treating as empty", "key", ModsKey)
		return "{}", nil
	}
	return raw, nil
}

func (s *Store) write(ctx context.Context, doc string) error {
	if err := s.kv.Set(ctx, ModsKey, doc); err != nil {
		return fmt.Errorf("write autoload set: %w", err)
	}
	return nil
}
