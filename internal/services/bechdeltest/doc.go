// Package bechdeltest reads the bechdeltest.com API and mirrors its ratings
// into the local store.
package bechdeltest
