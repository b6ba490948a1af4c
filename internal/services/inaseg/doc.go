// Package inaseg wraps the INA speech segmenter CLI, which labels audio
// intervals as male or female speech, music or noise.
package inaseg
