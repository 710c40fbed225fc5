// Package models lists the OpenAI models available to an API key, grouped
// into the chat models usable for translation and the text-to-speech models
// usable for pronunciation.
package models
