// Package config loads the circulation desk configuration and builds database connections from it.
//
// Values are layered: built-in defaults, then an optional YAML file, then a .env file, then the
// process environment. Later layers win.
package config
