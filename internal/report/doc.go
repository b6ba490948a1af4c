// Package report renders result tables as CSV, JSON, YAML or Excel and
// publishes report files to S3-compatible storage.
package report
