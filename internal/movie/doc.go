// Package movie assembles a movie profile from TMDB, Wikipedia, the local
// Bechdel ratings mirror and OMDb, and computes cast age gaps.
package movie
