package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// BlobStorage hosts uploaded images so remote functions can read them.
type BlobStorage interface {
	// Upload writes data under key and returns a URL the remote functions can
	// download it from.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type azureStorage struct {
	client    *azblob.Client
	container string
	urlTTL    time.Duration
}

// NewAzureStorage creates a blob store backed by an Azure storage container.
// Returned URLs carry a read-only SAS token valid for urlTTL.
func NewAzureStorage(accountName, accountKey, container string, urlTTL time.Duration) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	if urlTTL <= 0 {
		urlTTL = 24 * time.Hour
	}
	return &azureStorage{client: client, container: container, urlTTL: urlTTL}, nil
}

func (s *azureStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
	downloadURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(s.urlTTL), nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL: %w", err)
	}
	return downloadURL, nil
}
