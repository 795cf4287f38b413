package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/notes-ai-go/internal/controller"
	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/logger"
	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// imageField is the multipart field carrying the picture.
const imageField = "image"

// imageRoute serves a vision operation on the caller's controller.
func imageRoute[T models.AnalysisResult](h *handler, op string, call func(*controller.Controller, context.Context, *models.ImageFile) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := readImage(c)
		if err != nil {
			respondError(c, err)
			return
		}

		h.dispatch(c, op, func(ctrl *controller.Controller, ctx context.Context) (models.AnalysisResult, error) {
			result, err := call(ctrl, ctx, file)
			if err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

// textRoute serves a language operation on the caller's controller.
func textRoute[T models.AnalysisResult](h *handler, op string, call func(*controller.Controller, context.Context, models.TextRequest) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err))
			return
		}

		h.dispatch(c, op, func(ctrl *controller.Controller, ctx context.Context) (models.AnalysisResult, error) {
			result, err := call(ctrl, ctx, req)
			if err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func (h *handler) dispatch(c *gin.Context, op string, call func(*controller.Controller, context.Context) (models.AnalysisResult, error)) {
	startTime := time.Now()
	ctx := c.Request.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	sess := currentSession(c)
	fields := logrus.Fields{
		"operation": op,
		"user_id":   sess.UserID,
		"ip":        c.ClientIP(),
	}
	logger.WithFields(fields).Debug("Processing AI request")

	result, err := call(h.deps.Registry.ForUser(sess.UserID), ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	fields["processing_time_ms"] = time.Since(startTime).Milliseconds()
	logger.WithFields(fields).Info("AI request completed successfully")

	c.JSON(http.StatusOK, models.Wrap(result))
}

// readImage returns the uploaded picture, or nil when the request has none so
// the controller records the validation failure.
func readImage(c *gin.Context) (*models.ImageFile, error) {
	header, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, bindError(err)
	}

	data, err := readFormFile(header)
	if err != nil {
		return nil, bindError(err)
	}

	return &models.ImageFile{
		Name:        header.Filename,
		ContentType: contentType(header.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// contentType trusts the declared type unless the client left it generic, in
// which case the bytes are sniffed.
func contentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// bindError keeps body-size failures distinct from malformed input.
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.NewValidationError("invalid request format", err)
}

func (h *handler) state(c *gin.Context) {
	state := h.deps.Registry.ForUser(currentSession(c).UserID).State()
	c.JSON(http.StatusOK, models.StateResponse{
		Loading: state.Loading,
		Error:   state.Error,
		Result:  models.Wrap(state.Result),
	})
}

func (h *handler) reset(c *gin.Context) {
	h.deps.Registry.ForUser(currentSession(c).UserID).Reset()
	c.Status(http.StatusNoContent)
}

func (h *handler) logout(c *gin.Context) {
	sess := currentSession(c)
	h.deps.Registry.Drop(sess.UserID)

	logger.WithField("user_id", sess.UserID).Info("User signed out")
	c.Status(http.StatusNoContent)
}
