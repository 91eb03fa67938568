// Package config loads the service configuration from YAML with
// ${VAR:-default} environment substitution, validates it with
// defaulting, and optionally watches the file for changes with a
// debounced fsnotify watcher whose lifecycle belongs to the composing
// application.
package config
