// Package speech reads translations aloud. OpenAI TTS is the primary
// provider and the local espeak-ng binary serves as fallback.
package speech
