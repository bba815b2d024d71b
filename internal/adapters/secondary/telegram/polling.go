package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

const (
	defaultPollingTimeout = 30
	pollingRetryDelay     = 5 * time.Second
)

// allowedUpdates типы обновлений, которые обрабатывает бот
var allowedUpdates = []string{"message", "pre_checkout_query"}

// UpdateHandler функция для обработки обновлений от Telegram
type UpdateHandler func(ctx context.Context, update *domain.Update) error

// Poller реализует long polling для получения обновлений от Telegram
type Poller struct {
	client       *Client
	timeout      int
	handler      UpdateHandler
	lastUpdateID int64
	log          *slog.Logger
	httpClient   *http.Client // отдельный HTTP клиент с увеличенным таймаутом для polling
}

func NewPoller(client *Client, config *Config, handler UpdateHandler, log *slog.Logger) *Poller {
	timeout := config.PollingTimeout
	if timeout <= 0 {
		timeout = defaultPollingTimeout
	}

	return &Poller{
		client:  client,
		timeout: timeout,
		handler: handler,
		log:     log,
		httpClient: &http.Client{
			// polling timeout + запас
			Timeout: time.Duration(timeout+10) * time.Second,
		},
	}
}

// Start блокирующий цикл long polling до отмены контекста
func (p *Poller) Start(ctx context.Context) error {
	p.log.Info("starting telegram polling", "timeout", p.timeout)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped")
			return nil
		default:
		}

		updates, err := p.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.log.Error("failed to get updates", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollingRetryDelay):
			}
			continue
		}

		for i := range updates {
			update := &updates[i]
			if update.UpdateID >= p.lastUpdateID {
				p.lastUpdateID = update.UpdateID + 1
			}

			if err := p.handler(ctx, update); err != nil {
				p.log.Error("failed to handle update",
					"error", err,
					"update_id", update.UpdateID,
				)
			}
		}
	}
}

func (p *Poller) getUpdates(ctx context.Context) ([]domain.Update, error) {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", p.client.baseURL, p.lastUpdateID, p.timeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var updates []domain.Update
	err = p.client.do(p.httpClient, httpReq, "getUpdates", &updates)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsConflict() {
		p.log.Warn("telegram API conflict - another bot instance or webhook is active",
			"description", apiErr.Description,
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// DeleteWebhook удаляет webhook (нужно вызывать перед запуском polling)
func (p *Poller) DeleteWebhook(ctx context.Context) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{
		DropPendingUpdates: false,
	}

	if err := p.client.call(ctx, "deleteWebhook", req, nil); err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}

	p.log.Info("webhook deleted successfully")
	return nil
}
