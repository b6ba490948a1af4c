// Package config loads, normalizes, and validates bechdelai configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OPENAI_API_KEY. A .env file in the working directory is
// merged into the process environment before fallbacks are resolved, so API
// keys can live next to a project without being committed to the TOML file.
//
// Always obtain settings through this package so scrapers, analysis pipelines
// and the HTTP API receive sanitized paths and clear validation errors.
package config
