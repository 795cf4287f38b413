package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// InputLimits defines the limits enforced before any request leaves the service
type InputLimits struct {
	// MaxImageSize is the largest accepted image, in bytes
	MaxImageSize int64

	// SupportedImageTypes lists the accepted MIME types
	SupportedImageTypes []string

	// MaxTextLength is counted in characters, not bytes
	MaxTextLength int
}

// DefaultInputLimits returns the limits the hosted functions accept
func DefaultInputLimits() InputLimits {
	return InputLimits{
		MaxImageSize:        5 * 1024 * 1024, // 5MB
		SupportedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxTextLength:       5000,
	}
}

// InputValidator validates images and text submitted to the AI adapters
type InputValidator struct {
	limits InputLimits
}

// NewInputValidator creates a validator with default limits
func NewInputValidator() *InputValidator {
	return &InputValidator{limits: DefaultInputLimits()}
}

// NewInputValidatorWithLimits creates a validator with custom limits
func NewInputValidatorWithLimits(limits InputLimits) *InputValidator {
	return &InputValidator{limits: limits}
}

// Limits returns the configured limits
func (v *InputValidator) Limits() InputLimits {
	return v.limits
}

// ValidateImage fails if the file is absent, too large or of an unsupported type.
func (v *InputValidator) ValidateImage(file *models.ImageFile) error {
	if file == nil || len(file.Data) == 0 {
		return apperrors.NewValidationError("no image selected", nil)
	}
	if file.Size() > v.limits.MaxImageSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("image too large, maximum %s", formatBytes(v.limits.MaxImageSize)), nil)
	}
	if !slices.Contains(v.limits.SupportedImageTypes, normalizeMIME(file.ContentType)) {
		return apperrors.NewValidationError("unsupported image type", nil).WithDetails(file.ContentType)
	}
	return nil
}

// ValidateText fails if text is empty after trimming or longer than the limit.
func (v *InputValidator) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("empty text", nil)
	}
	if utf8.RuneCountInString(text) > v.limits.MaxTextLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("text too long, maximum %d characters", v.limits.MaxTextLength), nil)
	}
	return nil
}

// normalizeMIME drops parameters such as "; charset=" and lowercases the type.
func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
