package factory

import (
	"fmt"

	"github.com/anime-shed/notes-ai-go/internal/config"
	"github.com/anime-shed/notes-ai-go/internal/storage"
)

// StorageType represents different types of blob storage backends
type StorageType string

const (
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = config.StorageAzure
	// LocalStorage for the local file system served under /blobs
	LocalStorage StorageType = config.StorageLocal
)

// StorageFactory creates blob storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.BlobStorage, error)
}

// storageFactory implements StorageFactory from application config
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.BlobStorage, error) {
	switch storageType {
	case AzureStorage:
		return storage.NewAzureStorage(
			f.cfg.AzureStorageAccount,
			f.cfg.AzureStorageKey,
			f.cfg.AzureStorageContainer,
			0,
		)
	case LocalStorage:
		return storage.NewLocalStorage(f.cfg.LocalBlobDir, f.cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
