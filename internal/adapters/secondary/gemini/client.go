package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/service"
)

// ErrEmptyResponse модель не вернула текста (блокировка safety, пустой candidate)
var ErrEmptyResponse = errors.New("gemini returned no text")

// Client клиент generateContent API
type Client struct {
	cfg        *Config
	HTTPClient *http.Client
	Log        *slog.Logger
}

var _ service.IReadingGenerator = (*Client)(nil)

func NewClient(cfg *Config, log *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		// общий дедлайн задаёт вызывающий через ctx
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Log:        log,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateReading интерпретация расклада
func (c *Client) GenerateReading(ctx context.Context, prompt service.ReadingPrompt) (string, error) {
	return c.generate(ctx, ReadingPromptText(prompt))
}

// ContinueChat ответ на очередную реплику по раскладу
func (c *Client) ContinueChat(ctx context.Context, prompt service.ChatPrompt) (string, error) {
	return c.generate(ctx, ChatPromptText(prompt))
}

func (c *Client) buildURL() string {
	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/%s/models/%s:generateContent", baseURL, c.cfg.Version, c.cfg.Model)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(), bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.ApiKey)

	started := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		c.Log.Debug("gemini returned non-200 status",
			"status_code", resp.StatusCode,
			"api_status", apiErr.Error.Status,
			"body_preview", truncateString(string(body), 200),
		)
		return "", fmt.Errorf("gemini API error [status=%d]: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		c.Log.Debug("failed to unmarshal gemini response",
			"error", err,
			"body_preview", truncateString(string(body), 200),
		)
		return "", fmt.Errorf("gemini unmarshal failed: %w", err)
	}

	text := genResp.text()
	if text == "" {
		blockReason := ""
		if genResp.PromptFeedback != nil {
			blockReason = genResp.PromptFeedback.BlockReason
		}
		c.Log.Debug("gemini returned empty text", "block_reason", blockReason)
		return "", ErrEmptyResponse
	}

	c.Log.Debug("gemini response received",
		"duration_ms", time.Since(started).Milliseconds(),
		"length", len(text),
	)
	return text, nil
}

// text склеивает части первого кандидата
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
