// Package config loads, normalizes, and validates the TOML configuration for
// the AutoBlog engine.
//
// Configuration flows through three phases: Default() seeds every field,
// Load() overlays the user's config file, then normalize() expands paths and
// Validate() rejects unusable values. Other packages receive a fully resolved
// *Config and never re-check defaults.
package config
