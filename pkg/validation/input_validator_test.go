package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anime-shed/notes-ai-go/pkg/models"
)

func image(size int, contentType string) *models.ImageFile {
	return &models.ImageFile{Name: "photo", ContentType: contentType, Data: bytes.Repeat([]byte{0xff}, size)}
}

func TestValidateImage(t *testing.T) {
	validator := NewInputValidator()
	const fiveMB = 5 * 1024 * 1024

	tests := []struct {
		name    string
		file    *models.ImageFile
		message string
	}{
		{"nil file", nil, "no image selected"},
		{"empty payload", image(0, "image/png"), "no image selected"},
		{"too large", image(fiveMB+1, "image/jpeg"), "image too large, maximum 5MB"},
		{"unsupported type", image(10, "image/bmp"), "unsupported image type"},
		{"missing type", image(10, ""), "unsupported image type"},
		{"jpeg", image(10, "image/jpeg"), ""},
		{"png at limit", image(fiveMB, "image/png"), ""},
		{"gif", image(10, "image/gif"), ""},
		{"webp with params", image(10, "Image/WebP; q=1"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImage(tt.file)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			requireValidationMessage(t, err, tt.message)
		})
	}
}

func TestValidateText(t *testing.T) {
	validator := NewInputValidator()

	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"empty", "", "empty text"},
		{"whitespace only", " \t\n ", "empty text"},
		{"too long", strings.Repeat("a", 5001), "text too long, maximum 5000 characters"},
		{"at limit", strings.Repeat("a", 5000), ""},
		{"multibyte at limit", strings.Repeat("ã", 5000), ""},
		{"plain", "Olá mundo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateText(tt.text)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			requireValidationMessage(t, err, tt.message)
		})
	}
}

func TestCustomLimits(t *testing.T) {
	validator := NewInputValidatorWithLimits(InputLimits{
		MaxImageSize:        1500,
		SupportedImageTypes: []string{"image/png"},
		MaxTextLength:       3,
	})

	requireValidationMessage(t, validator.ValidateImage(image(1501, "image/png")), "image too large, maximum 1500 bytes")
	requireValidationMessage(t, validator.ValidateImage(image(10, "image/jpeg")), "unsupported image type")
	requireValidationMessage(t, validator.ValidateText("abcd"), "text too long, maximum 3 characters")
	assert.NoError(t, validator.ValidateText("abc"))
}
