package storage

import (
	"context"
)

// IS3Client интерфейс для работы с S3-совместимым хранилищем (MinIO)
type IS3Client interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// ICardImages картинки карт для доставки в Telegram
type ICardImages interface {
	GetCardImage(ctx context.Context, cardID string) ([]byte, error)
}
