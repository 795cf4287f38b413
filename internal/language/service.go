// Package language validates text and runs the remote natural-language
// functions, shaping their replies into typed results.
package language

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/notes-ai-go/internal/config"
	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/functions"
	"github.com/anime-shed/notes-ai-go/internal/logger"
	"github.com/anime-shed/notes-ai-go/pkg/models"
	"github.com/anime-shed/notes-ai-go/pkg/validation"
)

const (
	DefaultTargetLanguage = "en"
	DefaultMaxSentences   = 3

	defaultSentiment      = "neutro"
	defaultSourceLanguage = "auto"
)

// Entity type tags partitioned by ExtractEntities.
const (
	EntityPerson       = "PERSON"
	EntityLocation     = "LOCATION"
	EntityOrganization = "ORGANIZATION"
)

// Adapter is the language surface consumed by the interaction controller.
type Adapter interface {
	ValidateText(text string) error
	AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error)
	TranslateText(ctx context.Context, text, targetLanguage string) (*models.TranslationResult, error)
	ModerateContent(ctx context.Context, text string) (*models.ModerationResult, error)
	ExtractEntities(ctx context.Context, text string) (*models.EntityResult, error)
	SummarizeText(ctx context.Context, text string, maxSentences int) (*models.SummaryResult, error)
}

// Service implements Adapter. Every call re-invokes the remote function;
// nothing is cached.
type Service struct {
	caller    functions.Caller
	validator *validation.InputValidator
	endpoints config.Endpoints
}

func NewService(caller functions.Caller, cfg config.AIConfig) *Service {
	return &Service{
		caller: caller,
		validator: validation.NewInputValidatorWithLimits(validation.InputLimits{
			MaxImageSize:        cfg.MaxImageSize,
			SupportedImageTypes: cfg.SupportedImageTypes,
			MaxTextLength:       cfg.MaxTextLength,
		}),
		endpoints: cfg.Endpoints,
	}
}

func (s *Service) ValidateText(text string) error {
	return s.validator.ValidateText(text)
}

type textRequest struct {
	Text string `json:"text"`
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type summarizeRequest struct {
	Text         string `json:"text"`
	MaxSentences int    `json:"maxSentences"`
}

type sentimentResponse struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
	Sentiment string  `json:"sentiment"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
}

type moderateResponse struct {
	IsSafe     bool              `json:"isSafe"`
	Categories []json.RawMessage `json:"categories"`
}

type entitiesResponse struct {
	Entities []models.Entity `json:"entities"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// invoke validates text and calls function.
func (s *Service) invoke(ctx context.Context, op, text, function string, payload, out any) error {
	if err := s.ValidateText(text); err != nil {
		s.logFailure(op, err, nil)
		return err
	}
	if err := s.caller.Call(ctx, function, payload, out); err != nil {
		s.logFailure(op, err, logrus.Fields{"function": function})
		return err
	}
	return nil
}

func (s *Service) AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error) {
	var resp sentimentResponse
	if err := s.invoke(ctx, "analyzeSentiment", text, s.endpoints.AnalyzeSentiment, textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	sentiment := resp.Sentiment
	if sentiment == "" {
		sentiment = defaultSentiment
	}
	return &models.SentimentResult{
		Score:       resp.Score,
		Magnitude:   resp.Magnitude,
		Sentiment:   sentiment,
		Description: SentimentDescription(resp.Score),
	}, nil
}

// TranslateText translates text; an empty targetLanguage means English.
func (s *Service) TranslateText(ctx context.Context, text, targetLanguage string) (*models.TranslationResult, error) {
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}

	var resp translateResponse
	req := translateRequest{Text: text, TargetLanguage: targetLanguage}
	if err := s.invoke(ctx, "translateText", text, s.endpoints.TranslateText, req, &resp); err != nil {
		return nil, err
	}

	source := resp.SourceLanguage
	if source == "" {
		source = defaultSourceLanguage
	}
	return &models.TranslationResult{
		OriginalText:   text,
		TranslatedText: resp.TranslatedText,
		TargetLanguage: targetLanguage,
		SourceLanguage: source,
	}, nil
}

// ModerateContent treats a missing isSafe as unsafe.
func (s *Service) ModerateContent(ctx context.Context, text string) (*models.ModerationResult, error) {
	var resp moderateResponse
	if err := s.invoke(ctx, "moderateContent", text, s.endpoints.ModerateContent, textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	categories := resp.Categories
	if categories == nil {
		categories = []json.RawMessage{}
	}
	return &models.ModerationResult{
		IsSafe:                  resp.IsSafe,
		Categories:              categories,
		HasInappropriateContent: !resp.IsSafe,
	}, nil
}

func (s *Service) ExtractEntities(ctx context.Context, text string) (*models.EntityResult, error) {
	var resp entitiesResponse
	if err := s.invoke(ctx, "extractEntities", text, s.endpoints.ExtractEntities, textRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	entities := resp.Entities
	if entities == nil {
		entities = []models.Entity{}
	}
	return &models.EntityResult{
		Entities:      entities,
		People:        FilterEntities(entities, EntityPerson),
		Places:        FilterEntities(entities, EntityLocation),
		Organizations: FilterEntities(entities, EntityOrganization),
	}, nil
}

// SummarizeText asks for at most maxSentences sentences; values below one
// fall back to the default of three.
func (s *Service) SummarizeText(ctx context.Context, text string, maxSentences int) (*models.SummaryResult, error) {
	if maxSentences < 1 {
		maxSentences = DefaultMaxSentences
	}

	var resp summarizeResponse
	req := summarizeRequest{Text: text, MaxSentences: maxSentences}
	if err := s.invoke(ctx, "summarizeText", text, s.endpoints.SummarizeText, req, &resp); err != nil {
		return nil, err
	}

	return &models.SummaryResult{
		Summary:        resp.Summary,
		OriginalLength: utf8.RuneCountInString(text),
		SummaryLength:  utf8.RuneCountInString(resp.Summary),
	}, nil
}

func (s *Service) logFailure(op string, err error, fields logrus.Fields) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"operation":  op,
		"error_type": apperrors.GetType(err),
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Error("Language operation failed")
}
