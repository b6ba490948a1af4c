// Package allocine scrapes movie listings from allocine.fr and resolves the
// listed movies to TMDB identifiers.
package allocine
