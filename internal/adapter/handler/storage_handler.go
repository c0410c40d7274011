package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/errors"
)

// BucketInspector reports on the video bucket
type BucketInspector interface {
	GetBucketInfo(ctx context.Context) (map[string]interface{}, error)
}

// Storage handles object storage diagnostics
type Storage struct {
	bucket BucketInspector
	logger *zap.Logger
}

// NewStorageHandler creates a new storage handler
func NewStorageHandler(bucket BucketInspector, logger *zap.Logger) *Storage {
	return &Storage{
		bucket: bucket,
		logger: logger,
	}
}

// BucketInfo checks the video bucket is reachable
// @Summary      Video bucket status
// @Description  Verifies the MinIO connection and that the video bucket exists
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Bucket reachable"
// @Failure      500  {object}  common.ErrorResponse  "Storage unreachable"
// @Router       /admin/storage [get]
func (h *Storage) BucketInfo(c echo.Context) error {
	info, err := h.bucket.GetBucketInfo(c.Request().Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to inspect video bucket", zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrStorageFailed("bucket_info", err))
	}

	if exists, _ := info["bucket_exists"].(bool); !exists && h.logger != nil {
		h.logger.Warn("⚠️ Video bucket does not exist", zap.Any("bucket", info["bucket"]))
	}

	return HandleSuccess(h.logger, c, info)
}
