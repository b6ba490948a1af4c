// Package language converts between the language code flavours used by the
// services this module talks to: ISO 639-1 for Whisper, region locales for
// TMDB and ISO 639-2/B for opensubtitles.org.
package language
