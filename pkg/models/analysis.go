package models

import "encoding/json"

// ResultKind identifies which AnalysisResult variant a value carries.
type ResultKind string

const (
	KindLabels        ResultKind = "labels"
	KindText          ResultKind = "text"
	KindImageAnalysis ResultKind = "image_analysis"
	KindFaces         ResultKind = "faces"
	KindSentiment     ResultKind = "sentiment"
	KindTranslation   ResultKind = "translation"
	KindModeration    ResultKind = "moderation"
	KindEntities      ResultKind = "entities"
	KindSummary       ResultKind = "summary"
)

// AnalysisResult is the closed set of normalized results produced by the
// vision and language adapters. Exactly one variant is produced per call.
type AnalysisResult interface {
	Kind() ResultKind
}

// Label is a single classification label with its confidence.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// LabelResult is returned by image classification.
type LabelResult struct {
	Labels   []Label `json:"labels"`
	ImageURL string  `json:"imageUrl"`
}

func (LabelResult) Kind() ResultKind { return KindLabels }

// TextResult is returned by OCR.
type TextResult struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

func (TextResult) Kind() ResultKind { return KindText }

// ImageAnalysisResult is the full image analysis. Faces and objects are kept
// as raw JSON objects because their shape belongs to the remote function.
type ImageAnalysisResult struct {
	Labels   []Label           `json:"labels"`
	Faces    []json.RawMessage `json:"faces"`
	Objects  []json.RawMessage `json:"objects"`
	Colors   json.RawMessage   `json:"colors"`
	ImageURL string            `json:"imageUrl"`
}

func (ImageAnalysisResult) Kind() ResultKind { return KindImageAnalysis }

// FaceResult projects the faces of an image analysis.
type FaceResult struct {
	Faces     []json.RawMessage `json:"faces"`
	FaceCount int               `json:"faceCount"`
	ImageURL  string            `json:"imageUrl"`
}

func (FaceResult) Kind() ResultKind { return KindFaces }

type SentimentResult struct {
	Score       float64 `json:"score"`
	Magnitude   float64 `json:"magnitude"`
	Sentiment   string  `json:"sentiment"`
	Description string  `json:"description"`
}

func (SentimentResult) Kind() ResultKind { return KindSentiment }

type TranslationResult struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage"`
}

func (TranslationResult) Kind() ResultKind { return KindTranslation }

type ModerationResult struct {
	IsSafe                  bool              `json:"isSafe"`
	Categories              []json.RawMessage `json:"categories"`
	HasInappropriateContent bool              `json:"hasInappropriateContent"`
}

func (ModerationResult) Kind() ResultKind { return KindModeration }

// Entity is a named entity. Type is the only field interpreted locally; the
// full remote object is preserved in Raw.
type Entity struct {
	Type string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// MarshalJSON writes the original remote object back out unchanged.
func (e Entity) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return json.Marshal(map[string]string{"type": e.Type})
	}
	return e.Raw, nil
}

// UnmarshalJSON keeps the raw object and extracts its type tag.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	e.Type = tagged.Type
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type EntityResult struct {
	Entities      []Entity `json:"entities"`
	People        []Entity `json:"people"`
	Places        []Entity `json:"places"`
	Organizations []Entity `json:"organizations"`
}

func (EntityResult) Kind() ResultKind { return KindEntities }

type SummaryResult struct {
	Summary        string `json:"summary"`
	OriginalLength int    `json:"originalLength"`
	SummaryLength  int    `json:"summaryLength"`
}

func (SummaryResult) Kind() ResultKind { return KindSummary }

// Envelope tags a result with its kind for clients that branch on it.
type Envelope struct {
	Kind   ResultKind     `json:"kind"`
	Result AnalysisResult `json:"result"`
}

// Wrap builds an Envelope, returning nil for a nil result.
func Wrap(r AnalysisResult) *Envelope {
	if r == nil {
		return nil
	}
	return &Envelope{Kind: r.Kind(), Result: r}
}
