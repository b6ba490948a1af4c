// Package audio measures who speaks in a film soundtrack.
//
// ffmpeg extracts a mono 16 kHz WAV, a GenderSegmentor splits it into female
// and male speech segments, and a Processor optionally transcribes each
// segment. Two segmentors exist: the INA speech segmenter CLI, and a native
// pitch heuristic that needs no model.
package audio
