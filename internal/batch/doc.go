// Package batch reads batch translation files and writes their results.
package batch
