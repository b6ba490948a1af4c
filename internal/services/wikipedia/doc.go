// Package wikipedia fetches page sections through the MediaWiki parse API,
// chiefly to retrieve movie plot summaries.
package wikipedia
