// Package settings stores the translation provider selection, the API key
// of each paid provider and the auto mode flag, and resolves the provider a
// translation call should start from.
package settings
