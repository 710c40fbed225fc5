// Package archive moves generated output out of the way into timestamped
// archive directories.
package archive
