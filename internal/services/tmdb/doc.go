// Package tmdb wraps The Movie Database v3 API: movie search, details,
// credits and people. BestMatch resolves a (title, year) pair to a movie and
// Suggestions formats matches for interactive pickers.
package tmdb
