// Package whisperx runs the WhisperX speech recognition CLI through uvx and
// reads back its JSON transcript.
//
// The audio pipeline cuts one WAV clip per speech segment and hands each clip
// to TranscribeFile. Model, CUDA and VAD options are passed via Config.
package whisperx
