// Package file provides TOML-based configuration loading and
// persistence for the retrieval CLI. Configuration lives in a single
// config.toml under the application directory and selects the storage
// and embedding backends along with retrieval tuning parameters.
package file
