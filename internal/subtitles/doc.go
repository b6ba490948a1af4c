// Package subtitles parses, cleans and writes SRT files and groups cues into
// dialogue blocks for downstream text analysis.
//
// Parsing tolerates the encodings found in scraped subtitle archives: UTF-8
// with or without a byte order mark, and Windows-1252 as a fallback.
package subtitles
