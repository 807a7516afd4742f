// Package mock provides test doubles for the ai package.
//
//	embedder := mock.NewMockEmbedderWithDim(2).
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{1, 0}, nil
//	    })
//
//	count := embedder.CallCount()
//
// By default MockEmbedder returns deterministic unit vectors derived from an
// FNV hash of the text, so equal texts always embed identically.
package mock
