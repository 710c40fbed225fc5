// Package translation routes Indonesian and Japanese translation requests
// to the provider adapters.
//
// The Service validates a request, sends free and auto requests through the
// Router's fixed fallback chain (preferred provider, MyMemory, Lingva) plus
// one last resort attempt, and sends paid requests straight to their
// adapter. Final failures carry an Indonesian end-user message together
// with the error of the provider tried first.
package translation
