// Package ffprobe provides a typed wrapper around ffprobe JSON output. The
// CLI uses it to bound audio extraction and frame sampling by the real
// length of a movie and to check that it carries an audio track.
package ffprobe
