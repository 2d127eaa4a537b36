package autoload

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/modkernel/internal/storage"
)

const autoloadOnStartupField = "autoloadOnStartup"

// Settings are the kernel-wide persisted settings.
type Settings struct {
	// AutoloadOnStartup controls whether the autoload set is loaded at startup.
	AutoloadOnStartup bool
}

// DefaultSettings returns the settings used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{AutoloadOnStartup: true}
}

// LoadSettings reads the persisted settings. Missing or corrupt data yields
// DefaultSettings; only a storage failure is returned as an error.
func LoadSettings(ctx context.Context, kv storage.KV, logger *log.Logger) (Settings, error) {
	settings := DefaultSettings()

	raw, ok, err := kv.Get(ctx, SettingsKey)
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return settings, nil
	}
	if !gjson.Valid(raw) {
		if logger != nil {
			logger.Warn("settings are corrupt, using defaults", "key", SettingsKey)
		}
		return settings, nil
	}

	if v := gjson.Get(raw, autoloadOnStartupField); v.IsBool() {
		settings.AutoloadOnStartup = v.Bool()
	}
	return settings, nil
}

// SaveSettings persists settings, keeping any members it does not know about.
func SaveSettings(ctx context.Context, kv storage.KV, settings Settings) error {
	raw, ok, err := kv.Get(ctx, SettingsKey)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if !ok || !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		raw = "{}"
	}

	raw, err = sjson.Set(raw, autoloadOnStartupField, settings.AutoloadOnStartup)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := kv.Set(ctx, SettingsKey, raw); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
