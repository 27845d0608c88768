// Package config loads, defaults, and validates the chapterize TOML
// configuration.
//
// Load resolves the config path (explicit flag, then the default location),
// parses TOML over the defaults, expands ~ in paths, and validates the
// result. A missing file is not an error; defaults apply.
package config
