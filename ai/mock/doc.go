// Package mock provides test doubles for the ai package interfaces.
//
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
//	        return nil, errors.New("encoder down")
//	    })
//	count := mockEmbedder.CallCount()
//
// MockEmbedder returns deterministic unit vectors derived from an FNV hash of
// the text; MockProvider wraps one with a fixed ModelInfo.
package mock
