package source

// Transformer modifies fragment content, returning modified content or an
// error.
type Transformer interface {
	// Transform modifies input, returning modified content or an error.
	Transform(input []byte) ([]byte, error)
}

// TransformerFunc is a [Transformer] that can be represented just by the
// [Transform] method.
type TransformerFunc func(input []byte) ([]byte, error)

// Transform satisfies [Transformer].
func (fn TransformerFunc) Transform(input []byte) ([]byte, error) { return fn(input) }

// Chain chains together a set of transformers, failing fast if any transformer
// in the chain errors.
func Chain(transformers ...Transformer) TransformerFunc {
	return func(input []byte) ([]byte, error) {
		var err error
		for _, transformer := range transformers {
			input, err = transformer.Transform(input)
			if err != nil {
				return nil, err
			}
		}
		return input, nil
	}
}
