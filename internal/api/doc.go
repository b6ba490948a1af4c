// Package api is the application layer shared by the CLI and the HTTP
// server.
//
// Service wires the movie sources (TMDB, Wikipedia, OMDb, the ratings
// mirror) from configuration and records analyses as runs in the store.
// Server exposes it over HTTP with Echo:
//
//	GET  /api/health[?deep=1]
//	GET  /api/movies/search?q=
//	GET  /api/movies/:id/profile
//	GET  /api/ratings/:imdb
//	POST /api/subtitles/analyze[?tmdb_id=]
//	GET  /api/runs[?kind=&limit=]
//	GET  /api/runs/:id
//
// Every response carries an X-Request-ID header and errors are JSON bodies
// whose status follows the service error marker. Transport types use
// camelCase JSON tags; domain payloads (profiles, reports) keep their own.
package api
