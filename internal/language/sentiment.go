package language

import "github.com/anime-shed/notes-ai-go/pkg/models"

// SentimentDescription maps a score in [-1, 1] to a label. Every bracket
// boundary belongs to the bracket below it.
func SentimentDescription(score float64) string {
	switch {
	case score > 0.5:
		return "Muito Positivo"
	case score > 0.1:
		return "Positivo"
	case score > -0.1:
		return "Neutro"
	case score > -0.5:
		return "Negativo"
	default:
		return "Muito Negativo"
	}
}

// FilterEntities returns the entities tagged entityType in their original
// order, never nil.
func FilterEntities(entities []models.Entity, entityType string) []models.Entity {
	out := []models.Entity{}
	for _, e := range entities {
		if e.Type == entityType {
			out = append(out, e)
		}
	}
	return out
}
