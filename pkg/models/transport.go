package models

import "time"

// ImageFile is an image submitted for analysis.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload size in bytes.
func (f *ImageFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// UploadedAsset is the blob produced by a single image submission.
type UploadedAsset struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

// InteractionState is the busy/error/result status of the last AI operation.
type InteractionState struct {
	Loading bool           `json:"loading"`
	Error   *string        `json:"error"`
	Result  AnalysisResult `json:"-"`
}

// Note is a user's text note.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// TextRequest is the JSON body of the language endpoints.
type TextRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	MaxSentences   int    `json:"maxSentences,omitempty"`
}

// NoteRequest is the JSON body for creating a note.
type NoteRequest struct {
	Text string `json:"text"`
}

// StateResponse is the JSON view of an InteractionState.
type StateResponse struct {
	Loading bool      `json:"loading"`
	Error   *string   `json:"error"`
	Result  *Envelope `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}
