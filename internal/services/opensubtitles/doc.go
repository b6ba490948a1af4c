// Package opensubtitles searches opensubtitles.org and downloads subtitle
// archives, normalising their encoding to UTF-8.
package opensubtitles
