package schema

import "context"

// Describer fills in natural-language descriptions for events and
// properties. Implementations may call out to a model; the scan pipeline
// only depends on this interface.
type Describer interface {
	Describe(ctx context.Context, s *Schema) error
}

// NoopDescriber leaves all descriptions empty.
type NoopDescriber struct{}

func (NoopDescriber) Describe(ctx context.Context, s *Schema) error {
	return nil
}
