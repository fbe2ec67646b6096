// Package config loads, normalizes, and validates clippa configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PORT, CLIPPA_BUCKET, and REDIS_ADDR. A .env file in the working directory is
// loaded first so deployments can keep secrets out of the TOML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
