// Package config provides the configuration for a deadlinks run: the
// options built from CLI flags, their validation, and the optional
// .deadlinks YAML file with per-site overrides.
package config
