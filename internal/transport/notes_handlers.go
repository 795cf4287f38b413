package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
	"github.com/anime-shed/notes-ai-go/internal/repository"
	"github.com/anime-shed/notes-ai-go/pkg/models"
)

func (h *handler) listNotes(c *gin.Context) {
	notes, err := h.deps.Notes.List(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		respondError(c, noteError(err))
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *handler) addNote(c *gin.Context) {
	var req models.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	note, err := h.deps.Notes.Add(c.Request.Context(), currentSession(c).UserID, req.Text)
	if err != nil {
		respondError(c, noteError(err))
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *handler) deleteNote(c *gin.Context) {
	err := h.deps.Notes.Delete(c.Request.Context(), currentSession(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, noteError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func noteError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNoteNotFound):
		return apperrors.NewNotFoundError("note not found", err)
	default:
		return apperrors.NewInternalError("notes unavailable", err)
	}
}
