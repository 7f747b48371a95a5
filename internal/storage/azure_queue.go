package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"go-receipt-capture/pkg/models"
)

// AzureQueue persists accepted captures to Azure blob storage: the still
// under <receiptID>.jpg and a JSON manifest with the quality verdict and
// extracted metadata under <receiptID>.json. Blob storage handles
// durability; ingest workers downstream consume the container.
type AzureQueue struct {
	client    *azblob.Client
	container string
}

type uploadManifest struct {
	ReceiptID  string                  `json:"receipt_id"`
	CapturedAt time.Time               `json:"captured_at"`
	Quality    models.QualityResult    `json:"quality"`
	Metadata   *models.ReceiptMetadata `json:"metadata,omitempty"`
}

// NewAzureQueue creates a queue writing to the given storage account and
// container.
func NewAzureQueue(accountName, accountKey, container string) (*AzureQueue, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureQueue{client: client, container: container}, nil
}

// Enqueue uploads the image and its manifest. The manifest goes second so a
// manifest's presence implies a complete image blob.
func (q *AzureQueue) Enqueue(ctx context.Context, upload Upload) error {
	imageName := upload.ReceiptID + ".jpg"
	if _, err := q.client.UploadStream(ctx, q.container, imageName, bytes.NewReader(upload.ImageBytes), nil); err != nil {
		return fmt.Errorf("uploading capture %s: %w", upload.ReceiptID, err)
	}

	manifest, err := json.Marshal(uploadManifest{
		ReceiptID:  upload.ReceiptID,
		CapturedAt: upload.CapturedAt,
		Quality:    upload.Quality,
		Metadata:   upload.Metadata,
	})
	if err != nil {
		return fmt.Errorf("encoding manifest %s: %w", upload.ReceiptID, err)
	}

	manifestName := upload.ReceiptID + ".json"
	if _, err := q.client.UploadStream(ctx, q.container, manifestName, bytes.NewReader(manifest), nil); err != nil {
		return fmt.Errorf("uploading manifest %s: %w", upload.ReceiptID, err)
	}
	return nil
}
