// Package whisperapi sends audio clips to an OpenAI-compatible Whisper
// transcription endpoint through the go-openai client.
package whisperapi
