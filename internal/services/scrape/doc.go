// Package scrape provides the HTTP fetcher and HTML helpers shared by every
// metadata source (TMDB, Allociné, IMDb, Wikipedia, OpenSubtitles.org, IMSDb,
// bechdeltest.com).
//
// Requests carry browser-like headers derived from the target URL, are
// throttled per host, retried on transient failures and optionally cached in
// the SQLite store so repeated analyses do not hammer the sites.
package scrape
