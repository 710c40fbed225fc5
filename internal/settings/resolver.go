package settings

import "codeberg.org/snonux/jembatan/internal/provider"

// Active is the provider selection a translation call starts from
type Active struct {
	Provider   provider.ID
	Credential string
	AutoMode   bool
}

// Resolver reads the active provider from a Store
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveActiveProvider returns the stored selection. With auto mode on, or
// auto stored as provider, the result is auto without a credential. It does
// not check whether a paid provider has a key.
func (r *Resolver) ResolveActiveProvider() Active {
	s := Load(r.store)
	if s.AutoMode || s.Provider.IsAuto() {
		return Active{Provider: provider.Auto, AutoMode: true}
	}
	return Active{
		Provider:   s.Provider,
		Credential: s.APIKeys[s.Provider],
	}
}
