// Package store persists bechdelai state in a single SQLite database:
// cached scraper responses, a local mirror of bechdeltest.com ratings, and a
// journal of analysis runs. Writes retry on SQLITE_BUSY and bulk imports are
// serialized across processes with a file lock.
package store
