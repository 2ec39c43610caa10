// Package config loads, normalizes, and validates shelver's TOML
// configuration.
//
// Load resolves the config path (explicit flag, ~/.config/shelver/config.toml,
// or a project-local shelver.toml), decodes over repository defaults, expands
// ~ in every path field, and rejects configurations that cannot work. Out of
// range similarity thresholds silently fall back to the tuned defaults so a
// typo never loosens safety behavior.
package config
