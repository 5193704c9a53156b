package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads payout receipts. Receipts may be images or PDFs, so the
// resource type is left to Cloudinary.
type Client interface {
	UploadReceipt(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
}

// ReceiptResourceType lets Cloudinary detect image vs raw uploads.
const ReceiptResourceType = "auto"

var overwriteReceipts = true

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadReceipt(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: ReceiptResourceType,
		Overwrite:    &overwriteReceipts,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	if result.SecureURL == "" {
		return BuildReceiptURL(c.cloudName, result.PublicID), nil
	}
	return result.SecureURL, nil
}

// BuildReceiptURL returns the delivery URL for a stored receipt.
func BuildReceiptURL(cloudName, publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", cloudName, publicID)
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
