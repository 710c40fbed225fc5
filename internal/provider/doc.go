// Package provider contains one adapter per translation backend. Every
// adapter turns a (text, source, target, credential) call into a normalized
// Outcome or a typed *Failure, whatever the upstream response looks like.
package provider
