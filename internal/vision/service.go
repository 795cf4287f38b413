// Package vision validates images, hosts them in blob storage and runs the
// remote vision functions against the uploaded copy.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/notes-ai-go/internal/config"
	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/functions"
	"github.com/anime-shed/notes-ai-go/internal/logger"
	"github.com/anime-shed/notes-ai-go/internal/storage"
	"github.com/anime-shed/notes-ai-go/pkg/models"
	"github.com/anime-shed/notes-ai-go/pkg/validation"
)

// Blob folders per operation.
const (
	FolderDefault  = "ai-images"
	FolderClassify = "classify-images"
	FolderOCR      = "ocr-images"
	FolderAnalyze  = "analyze-images"
)

// Adapter is the vision surface consumed by the interaction controller.
type Adapter interface {
	ValidateImage(file *models.ImageFile) error
	UploadImage(ctx context.Context, file *models.ImageFile, folder string) (*models.UploadedAsset, error)
	ClassifyImage(ctx context.Context, file *models.ImageFile) (*models.LabelResult, error)
	DetectText(ctx context.Context, file *models.ImageFile) (*models.TextResult, error)
	AnalyzeImage(ctx context.Context, file *models.ImageFile) (*models.ImageAnalysisResult, error)
	DetectFaces(ctx context.Context, file *models.ImageFile) (*models.FaceResult, error)
}

// Service implements Adapter.
type Service struct {
	caller       functions.Caller
	blobs        storage.BlobStorage
	validator    *validation.InputValidator
	urlValidator *validation.URLValidator
	endpoints    config.Endpoints
	labels       LabelPolicy
	now          func() time.Time
}

// NewService wires the adapter to its remote collaborators.
func NewService(caller functions.Caller, blobs storage.BlobStorage, cfg config.AIConfig) *Service {
	return &Service{
		caller: caller,
		blobs:  blobs,
		validator: validation.NewInputValidatorWithLimits(validation.InputLimits{
			MaxImageSize:        cfg.MaxImageSize,
			SupportedImageTypes: cfg.SupportedImageTypes,
			MaxTextLength:       cfg.MaxTextLength,
		}),
		urlValidator: validation.NewURLValidator(),
		endpoints:    cfg.Endpoints,
		labels: LabelPolicy{
			Enforce:       cfg.EnforceLabelLimits,
			MinConfidence: cfg.MinConfidence,
			MaxLabels:     cfg.MaxLabels,
		},
		now: time.Now,
	}
}

// WithClock overrides the time source used for blob keys.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ValidateImage(file *models.ImageFile) error {
	return s.validator.ValidateImage(file)
}

// UploadImage stores file under <folder>/<unix millis>_<name> and returns its
// download URL. Failures are not retried.
func (s *Service) UploadImage(ctx context.Context, file *models.ImageFile, folder string) (*models.UploadedAsset, error) {
	if file == nil {
		return nil, apperrors.NewValidationError("no image selected", nil)
	}
	if folder == "" {
		folder = FolderDefault
	}

	fileName := fmt.Sprintf("%d_%s", s.now().UnixMilli(), file.Name)
	key := folder + "/" + fileName

	url, err := s.blobs.Upload(ctx, key, file.Data, file.ContentType)
	if err != nil {
		err = apperrors.NewUploadError("image upload failed", err)
		s.logFailure("uploadImage", err, logrus.Fields{"key": key})
		return nil, err
	}
	if err := s.urlValidator.ValidateURL(url); err != nil {
		err = apperrors.NewUploadError("blob storage returned an unusable URL", err)
		s.logFailure("uploadImage", err, logrus.Fields{"key": key})
		return nil, err
	}

	logger.WithFields(logrus.Fields{"key": key, "size": file.Size()}).Debug("Image uploaded")
	return &models.UploadedAsset{URL: url, FileName: fileName}, nil
}

type imageRequest struct {
	ImageURL string `json:"imageUrl"`
}

type classifyResponse struct {
	Labels []models.Label `json:"labels"`
}

type detectTextResponse struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Labels  []models.Label    `json:"labels"`
	Faces   []json.RawMessage `json:"faces"`
	Objects []json.RawMessage `json:"objects"`
	Colors  json.RawMessage   `json:"colors"`
}

// invoke runs validate -> upload -> call for one image operation.
func (s *Service) invoke(ctx context.Context, op string, file *models.ImageFile, folder, function string, out any) (string, error) {
	if err := s.ValidateImage(file); err != nil {
		s.logFailure(op, err, nil)
		return "", err
	}

	asset, err := s.UploadImage(ctx, file, folder)
	if err != nil {
		s.logFailure(op, err, nil)
		return "", err
	}

	if err := s.caller.Call(ctx, function, imageRequest{ImageURL: asset.URL}, out); err != nil {
		s.logFailure(op, err, logrus.Fields{"function": function, "image_url": asset.URL})
		return "", err
	}
	return asset.URL, nil
}

func (s *Service) ClassifyImage(ctx context.Context, file *models.ImageFile) (*models.LabelResult, error) {
	var resp classifyResponse
	url, err := s.invoke(ctx, "classifyImage", file, FolderClassify, s.endpoints.ClassifyImage, &resp)
	if err != nil {
		return nil, err
	}
	return &models.LabelResult{Labels: s.labels.Apply(resp.Labels), ImageURL: url}, nil
}

func (s *Service) DetectText(ctx context.Context, file *models.ImageFile) (*models.TextResult, error) {
	var resp detectTextResponse
	url, err := s.invoke(ctx, "detectText", file, FolderOCR, s.endpoints.DetectText, &resp)
	if err != nil {
		return nil, err
	}
	return &models.TextResult{Text: resp.Text, ImageURL: url}, nil
}

func (s *Service) AnalyzeImage(ctx context.Context, file *models.ImageFile) (*models.ImageAnalysisResult, error) {
	var resp analyzeResponse
	url, err := s.invoke(ctx, "analyzeImage", file, FolderAnalyze, s.endpoints.AnalyzeImage, &resp)
	if err != nil {
		return nil, err
	}

	result := &models.ImageAnalysisResult{
		Labels:   s.labels.Apply(resp.Labels),
		Faces:    orEmpty(resp.Faces),
		Objects:  orEmpty(resp.Objects),
		ImageURL: url,
	}
	if len(resp.Colors) > 0 && string(resp.Colors) != "null" {
		result.Colors = resp.Colors
	}
	return result, nil
}

// DetectFaces runs a full analysis and keeps only the faces.
func (s *Service) DetectFaces(ctx context.Context, file *models.ImageFile) (*models.FaceResult, error) {
	analysis, err := s.AnalyzeImage(ctx, file)
	if err != nil {
		s.logFailure("detectFaces", err, nil)
		return nil, err
	}
	return &models.FaceResult{
		Faces:     analysis.Faces,
		FaceCount: len(analysis.Faces),
		ImageURL:  analysis.ImageURL,
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
	entry.Error("Vision operation failed")
}

func orEmpty(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
