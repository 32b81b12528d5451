// Package driving declares what the CLI, the MCP server and the inbox
// watcher may ask of the core: ingest, process, search, inspect and
// configure documents. internal/core/services implements every interface.
package driving
