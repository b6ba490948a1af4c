// Package deepface is a client for the DeepFace REST API. Frames are posted
// base64 encoded to /analyze with the gender action only.
package deepface
