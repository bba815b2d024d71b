package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

const (
	telegramAPIBaseURL = "https://api.telegram.org/bot"
	apiTimeout         = 30 * time.Second
)

// Client клиент для работы с Telegram Bot API
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient создаёт новый клиент для Telegram Bot API
func NewClient(token string, log *slog.Logger) *Client {
	return NewClientWithBaseURL(telegramAPIBaseURL+token, log)
}

// NewClientWithBaseURL клиент с явным адресом API (локальный Bot API сервер, тесты)
func NewClientWithBaseURL(baseURL string, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL: baseURL,
		log:     log,
	}
}

// SendMessageRequest запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID          int64                        `json:"chat_id"`
	Text            string                       `json:"text"`
	ParseMode       string                       `json:"parse_mode,omitempty"` // "HTML", "Markdown", "MarkdownV2"
	ReplyMarkup     *domain.InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	MessageThreadID *int64                       `json:"message_thread_id,omitempty"` // ID топика форума
}

// SendMessageResult результат отправки сообщения
type SendMessageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64 `json:"date"`
}

// SendMessage отправляет текстовое сообщение
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
}

// SendMessageWithKeyboard отправляет сообщение с inline-клавиатурой
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error {
	return c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
}

// SendMessageWithRequest отправляет сообщение с произвольными параметрами
func (c *Client) SendMessageWithRequest(ctx context.Context, req SendMessageRequest) error {
	var result SendMessageResult
	if err := c.call(ctx, "sendMessage", req, &result); err != nil {
		return fmt.Errorf("telegram sendMessage failed [chat_id=%d]: %w", req.ChatID, err)
	}

	c.log.Debug("message sent successfully",
		"chat_id", req.ChatID,
		"message_id", result.MessageID,
	)
	return nil
}

// GetMe проверяет токен бота
func (c *Client) GetMe(ctx context.Context) error {
	var me domain.TelegramUser
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return fmt.Errorf("getMe failed: %w", err)
	}

	c.log.Info("bot info retrieved successfully", "bot_id", me.ID)
	return nil
}

// BotCommand представляет команду бота
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands регистрирует команды бота в меню
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	req := struct {
		Commands []BotCommand `json:"commands"`
	}{
		Commands: commands,
	}

	if err := c.call(ctx, "setMyCommands", req, nil); err != nil {
		return fmt.Errorf("setMyCommands failed: %w", err)
	}

	c.log.Info("bot commands registered successfully", "commands_count", len(commands))
	return nil
}

// SetWebhook регистрирует webhook, secretToken вернётся в заголовке X-Telegram-Bot-Api-Secret-Token
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	req := struct {
		URL            string   `json:"url"`
		SecretToken    string   `json:"secret_token,omitempty"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: allowedUpdates,
	}

	if err := c.call(ctx, "setWebhook", req, nil); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}

	c.log.Info("webhook registered", "url", url)
	return nil
}

// call POST с JSON-телом; при result != nil поле result ответа декодируется в него
func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return c.do(c.httpClient, httpReq, method, result)
}

// do выполняет запрос и разбирает общий конверт ответа Bot API
func (c *Client) do(httpClient *http.Client, httpReq *http.Request, method string, result any) error {
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body [status=%d]: %w", resp.StatusCode, err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		c.log.Error("failed to unmarshal response",
			"error", err,
			"method", method,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return fmt.Errorf("failed to unmarshal response [status=%d]: %w", resp.StatusCode, err)
	}

	if !apiResp.OK {
		c.log.Debug("telegram API returned error",
			"method", method,
			"error_code", apiResp.ErrorCode,
			"description", apiResp.Description,
			"status_code", resp.StatusCode,
		)
		return &APIError{Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	if result == nil || len(apiResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(apiResp.Result, result); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

// truncateString обрезает строку до maxLen символов
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
