// Package preflight provides readiness checks for the external binaries,
// services and filesystem paths the analysis pipelines depend on.
//
// These checks run in two contexts:
//   - The CLI "deps" command prints every check as a table.
//   - The HTTP API health endpoint reports the same results as JSON.
//
// Remote services are only contacted when they are configured.
package preflight
