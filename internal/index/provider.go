package index

import "context"

// Provider yields searchable record projections for one source type.
// Providers are the narrow interface to the archive's collections; the
// index never reaches into their storage directly.
type Provider interface {
	// Source returns the source type this provider projects.
	Source() SourceType

	// Records returns the full current projection of the collection.
	// The index copies nothing: returned records must not be mutated
	// by the provider after the call.
	Records(ctx context.Context) ([]*Record, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc struct {
	SourceType SourceType
	Fn         func(ctx context.Context) ([]*Record, error)
}

// Source implements Provider.
func (p ProviderFunc) Source() SourceType { return p.SourceType }

// Records implements Provider.
func (p ProviderFunc) Records(ctx context.Context) ([]*Record, error) { return p.Fn(ctx) }
