// Package file persists configuration as a TOML file in the docintel home
// directory (~/.docintel/config.toml unless DOCINTEL_HOME is set).
//
// Dotted keys are written as TOML tables, so "embedding.provider" appears as
// provider under [embedding]. The file is created with 0600 permissions
// because it may hold an API key.
package file
