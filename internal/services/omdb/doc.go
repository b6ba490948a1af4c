// Package omdb looks up movie posters through the OMDb API.
package omdb
