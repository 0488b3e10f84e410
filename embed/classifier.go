package embed

import (
	"github.com/poiesic/jobvec/ai"
	"github.com/poiesic/jobvec/core"
)

// Classify summarizes a bundle. SectionsEmbedded lists sections holding a
// vector in canonical order, and the document is ready as soon as any one
// section is embedded.
func Classify(bundle *core.EmbeddingBundle, model ai.ModelInfo) core.Metadata {
	embedded := make([]string, 0, len(core.Sections))
	if bundle != nil {
		for _, name := range core.Sections {
			if bundle.Section(name).Embedded() {
				embedded = append(embedded, string(name))
			}
		}
	}

	return core.Metadata{
		EmbeddingModel:   model.Name,
		VectorDimension:  model.Dimension,
		SectionsEmbedded: embedded,
		EmbeddingReady:   len(embedded) > 0,
	}
}
