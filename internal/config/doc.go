// Package config loads modkernel configuration.
//
// Settings come from built-in defaults, an optional config.toml and
// MODKERNEL_* environment variables, in increasing priority:
//
//	MODKERNEL_LOG_LEVEL=debug modkernel run
//
// Keys:
//
//	log.level          debug | info | warn | error
//	storage.driver     file | sqlite | memory
//	storage.path       state file; defaults inside the config directory
//	mods.dir           directory scanned and watched for mods
//	mods.watch         reload mods when their files change
//	mods.autoload_new  mark mods loaded from mods.dir for autoload
package config
