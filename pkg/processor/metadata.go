package processor

import (
	"fmt"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
)

// UpdateMetadata merges extra into every chunk's metadata and keeps only
// values a vector store can index: strings, booleans, integers and floats.
// The source key always survives. The input slice is not modified.
func UpdateMetadata(chunks []models.Document, extra map[string]any) []models.Document {
	out := make([]models.Document, len(chunks))
	for i, chunk := range chunks {
		merged := chunk.WithMetadata(extra)
		for k, v := range merged.Metadata {
			if isScalar(v) {
				continue
			}
			if k == models.MetaSource {
				merged.Metadata[k] = ""
				if v != nil {
					merged.Metadata[k] = fmt.Sprint(v)
				}
				continue
			}
			delete(merged.Metadata, k)
		}
		out[i] = merged
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
