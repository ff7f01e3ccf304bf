// Package confloader loads server configuration from multiple
// sources using koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (EXPIRYLEDGER_ prefix)
//  2. Configuration file (YAML)
//  3. Default values supplied by the caller
//
// A fsnotify-based watcher supports reacting to config file changes
// at runtime; the server uses it for live log level adjustment.
package confloader
