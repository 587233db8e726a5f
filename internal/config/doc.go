// Package config loads the monitor configuration from YAML.
//
// ${VAR} references are expanded from the environment after an optional .env
// file next to the config file has been loaded. Zero values are replaced by the
// Default* constants before validation.
package config
