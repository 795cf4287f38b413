package vision

import "github.com/anime-shed/notes-ai-go/pkg/models"

// LabelPolicy optionally drops low-confidence labels and caps the count.
// When Enforce is false labels pass through untouched.
type LabelPolicy struct {
	Enforce       bool
	MinConfidence float64
	MaxLabels     int
}

// Apply returns the labels to report, never nil.
func (p LabelPolicy) Apply(labels []models.Label) []models.Label {
	if !p.Enforce {
		if labels == nil {
			return []models.Label{}
		}
		return labels
	}

	out := make([]models.Label, 0, len(labels))
	for _, l := range labels {
		if l.Score < p.MinConfidence {
			continue
		}
		if p.MaxLabels > 0 && len(out) == p.MaxLabels {
			break
		}
		out = append(out, l)
	}
	return out
}
