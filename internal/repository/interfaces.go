package repository

import (
	"context"

	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// NoteRepository defines the data access operations for user notes
type NoteRepository interface {
	// List returns the user's notes, newest first
	List(ctx context.Context, userID string) ([]models.Note, error)

	// Add stores a new note for the user
	Add(ctx context.Context, userID, text string) (*models.Note, error)

	// Delete removes one of the user's notes
	Delete(ctx context.Context, userID, noteID string) error
}
