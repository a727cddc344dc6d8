// Package config loads editor options from files and the environment.
//
// Options are plain nested maps, the same shape the state store holds.
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults (applied by the state store)
//  2. an options file: .toml, .yaml/.yml or .json
//  3. VECTORCORE_* environment variables
//
// A Watcher reloads the options file when it changes and resets the
// state store with the result.
package config
