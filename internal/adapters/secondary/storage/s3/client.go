package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/storage"
	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound объекта нет в bucket
var ErrObjectNotFound = errors.New("object not found")

// Client обёртка над minio.Client для работы с S3
type Client struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

var _ storage.IS3Client = (*Client)(nil)

// NewClient создаёт новый S3 клиент
func NewClient(client *minio.Client, bucket string, log *slog.Logger) *Client {
	return &Client{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

// GetFile получает файл по пути
func (c *Client) GetFile(ctx context.Context, path string) ([]byte, error) {
	object, err := c.client.GetObject(ctx, c.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}
	defer object.Close()

	// minio возвращает ошибку отсутствия объекта только при чтении
	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}

	return data, nil
}

// CardImages картинки колоды из bucket, прочитанные один раз держатся в памяти
type CardImages struct {
	files storage.IS3Client
	log   *slog.Logger

	mu     sync.RWMutex
	images map[string][]byte
}

var _ storage.ICardImages = (*CardImages)(nil)

func NewCardImages(files storage.IS3Client, log *slog.Logger) *CardImages {
	return &CardImages{
		files:  files,
		log:    log,
		images: make(map[string][]byte),
	}
}

// GetCardImage картинка карты по id колоды (cards/<id>.png)
func (c *CardImages) GetCardImage(ctx context.Context, cardID string) ([]byte, error) {
	card, ok := domain.CardByID(cardID)
	if !ok {
		return nil, fmt.Errorf("unknown card %q", cardID)
	}

	c.mu.RLock()
	image, ok := c.images[card.ID]
	c.mu.RUnlock()
	if ok {
		return image, nil
	}

	image, err := c.files.GetFile(ctx, card.ImageKey())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[card.ID] = image
	c.mu.Unlock()

	c.log.Debug("card image loaded", "card_id", card.ID, "size", len(image))
	return image, nil
}
