// Package config reads service configuration from a YAML file with
// environment-variable overrides and hot reload.
package config
