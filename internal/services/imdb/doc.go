// Package imdb scrapes imdb.com title search, title pages and full credits,
// and reads the public TSV dumps to enrich cast members with gender and
// birth year.
package imdb
