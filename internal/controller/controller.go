// Package controller tracks the busy/error/result state of the AI operation a
// user invoked last.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/language"
	"github.com/anime-shed/notes-ai-go/internal/observer"
	"github.com/anime-shed/notes-ai-go/internal/vision"
	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// Controller wraps every adapter call with state bookkeeping.
//
// Operations are not serialized: two overlapping calls race and the last one
// to settle wins. Callers keep a single operation outstanding at a time.
type Controller struct {
	vision   vision.Adapter
	language language.Adapter
	events   observer.Subject
	owner    string

	mu    sync.Mutex
	state models.InteractionState
}

// New creates a controller in the idle state. events may be nil.
func New(v vision.Adapter, l language.Adapter, events observer.Subject, owner string) *Controller {
	return &Controller{
		vision:   v,
		language: l,
		events:   events,
		owner:    owner,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() models.InteractionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears loading, error and result unconditionally.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = models.InteractionState{}
	c.mu.Unlock()

	c.publish(context.Background(), observer.InteractionEvent{
		EventType: observer.InteractionReset,
		Success:   true,
	})
}

func (c *Controller) ClassifyImage(ctx context.Context, file *models.ImageFile) (*models.LabelResult, error) {
	return run(ctx, c, "classifyImage", func(ctx context.Context) (*models.LabelResult, error) {
		return c.vision.ClassifyImage(ctx, file)
	})
}

func (c *Controller) DetectText(ctx context.Context, file *models.ImageFile) (*models.TextResult, error) {
	return run(ctx, c, "detectText", func(ctx context.Context) (*models.TextResult, error) {
		return c.vision.DetectText(ctx, file)
	})
}

func (c *Controller) AnalyzeImage(ctx context.Context, file *models.ImageFile) (*models.ImageAnalysisResult, error) {
	return run(ctx, c, "analyzeImage", func(ctx context.Context) (*models.ImageAnalysisResult, error) {
		return c.vision.AnalyzeImage(ctx, file)
	})
}

func (c *Controller) DetectFaces(ctx context.Context, file *models.ImageFile) (*models.FaceResult, error) {
	return run(ctx, c, "detectFaces", func(ctx context.Context) (*models.FaceResult, error) {
		return c.vision.DetectFaces(ctx, file)
	})
}

func (c *Controller) AnalyzeSentiment(ctx context.Context, text string) (*models.SentimentResult, error) {
	return run(ctx, c, "analyzeSentiment", func(ctx context.Context) (*models.SentimentResult, error) {
		return c.language.AnalyzeSentiment(ctx, text)
	})
}

func (c *Controller) TranslateText(ctx context.Context, text, targetLanguage string) (*models.TranslationResult, error) {
	return run(ctx, c, "translateText", func(ctx context.Context) (*models.TranslationResult, error) {
		return c.language.TranslateText(ctx, text, targetLanguage)
	})
}

func (c *Controller) ModerateContent(ctx context.Context, text string) (*models.ModerationResult, error) {
	return run(ctx, c, "moderateContent", func(ctx context.Context) (*models.ModerationResult, error) {
		return c.language.ModerateContent(ctx, text)
	})
}

func (c *Controller) ExtractEntities(ctx context.Context, text string) (*models.EntityResult, error) {
	return run(ctx, c, "extractEntities", func(ctx context.Context) (*models.EntityResult, error) {
		return c.language.ExtractEntities(ctx, text)
	})
}

func (c *Controller) SummarizeText(ctx context.Context, text string, maxSentences int) (*models.SummaryResult, error) {
	return run(ctx, c, "summarizeText", func(ctx context.Context) (*models.SummaryResult, error) {
		return c.language.SummarizeText(ctx, text, maxSentences)
	})
}

// run sets loading before delegating, then stores either the result or the
// error message. On failure the previous result is kept and err is returned
// as is.
func run[T models.AnalysisResult](ctx context.Context, c *Controller, op string, call func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	c.state.Loading = true
	c.state.Error = nil
	c.mu.Unlock()

	c.publish(ctx, observer.InteractionEvent{EventType: observer.InteractionStarted, Operation: op})
	start := time.Now()

	result, err := call(ctx)
	elapsed := time.Since(start)

	c.mu.Lock()
	c.state.Loading = false
	if err != nil {
		msg := Message(err)
		c.state.Error = &msg
	} else {
		c.state.Result = result
	}
	c.mu.Unlock()

	if err != nil {
		c.publish(ctx, observer.InteractionEvent{
			EventType:    observer.InteractionFailed,
			Operation:    op,
			Duration:     elapsed,
			ErrorType:    string(apperrors.GetType(err)),
			ErrorMessage: Message(err),
		})
		return result, err
	}

	c.publish(ctx, observer.InteractionEvent{
		EventType: observer.InteractionCompleted,
		Operation: op,
		Duration:  elapsed,
		Success:   true,
	})
	return result, nil
}

// Message is the user-facing text of err.
func Message(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (c *Controller) publish(ctx context.Context, event observer.InteractionEvent) {
	if c.events == nil {
		return
	}
	event.UserID = c.owner
	c.events.NotifyObservers(ctx, event)
}
