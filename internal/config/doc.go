// Package config loads, normalizes, and validates pitlane configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and lets environment variables such as
// REDDIT_CLIENT_ID and REAL_DEBRID_API_TOKEN override credentials from the
// file. The Config type centralizes every knob the ingest pass, daemon and
// CLI need so they are discovered in one place.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
