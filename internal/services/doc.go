// Package services defines shared utilities consumed by the analysis pipelines
// and the external integrations living in its subpackages (scrapers, model
// runners, the LLM client).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs review).
package services
