// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Every setting carries a built-in default (F/R trains, 10 minute cache,
// 8 minute refresh), so the relay runs with no config file at all.
package config
