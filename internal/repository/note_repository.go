package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anime-shed/notes-ai-go/pkg/models"
)

// noteRecord is the stored form of a note
type noteRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index:idx_notes_user_created,priority:1;not null"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_notes_user_created,priority:2"`
}

func (noteRecord) TableName() string { return "notes" }

func (r noteRecord) toModel() models.Note {
	return models.Note{ID: r.ID, UserID: r.UserID, Text: r.Text, CreatedAt: r.CreatedAt}
}

// TextValidator checks note text before it is stored
type TextValidator interface {
	ValidateText(text string) error
}

// GormNoteRepository implements NoteRepository on a gorm database
type GormNoteRepository struct {
	db        *gorm.DB
	validator TextValidator
	now       func() time.Time
}

// OpenSQLite opens (creating if needed) the sqlite database at path and
// migrates the notes table.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&noteRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// NewGormNoteRepository creates a note repository on db. A nil validator
// accepts any text.
func NewGormNoteRepository(db *gorm.DB, validator TextValidator) *GormNoteRepository {
	return &GormNoteRepository{db: db, validator: validator, now: time.Now}
}

func (r *GormNoteRepository) List(ctx context.Context, userID string) ([]models.Note, error) {
	var records []noteRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	notes := make([]models.Note, 0, len(records))
	for _, rec := range records {
		notes = append(notes, rec.toModel())
	}
	return notes, nil
}

func (r *GormNoteRepository) Add(ctx context.Context, userID, text string) (*models.Note, error) {
	if r.validator != nil {
		if err := r.validator.ValidateText(text); err != nil {
			return nil, err
		}
	}

	rec := noteRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	note := rec.toModel()
	return &note, nil
}

func (r *GormNoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", noteID, userID).
		Delete(&noteRecord{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
