// Package config loads the inputview TOML configuration.
package config
