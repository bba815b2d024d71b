package telegram

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

// PhotoSize размер фото
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     *int   `json:"file_size,omitempty"`
}

// SendPhotoResult результат отправки фото
type SendPhotoResult struct {
	MessageID int64       `json:"message_id"`
	Photo     []PhotoSize `json:"photo"`
	Date      int64       `json:"date"`
}

// SendPhoto отправляет фото с подписью (multipart/form-data)
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to write chat_id: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("failed to write caption: %w", err)
		}
	}

	photoPart, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("failed to create photo form file: %w", err)
	}
	if _, err := photoPart.Write(photo); err != nil {
		return fmt.Errorf("failed to write photo data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendPhoto", &requestBody)
	if err != nil {
		return fmt.Errorf("telegram create request failed [chat_id=%d]: %w", chatID, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debug("sending photo to Telegram",
		"chat_id", chatID,
		"filename", filename,
		"photo_size", len(photo))

	var result SendPhotoResult
	if err := c.do(c.httpClient, httpReq, "sendPhoto", &result); err != nil {
		c.log.Error("failed to send photo",
			"error", err,
			"chat_id", chatID,
			"filename", filename)
		return fmt.Errorf("telegram sendPhoto failed [chat_id=%d]: %w", chatID, err)
	}

	c.log.Debug("photo sent successfully",
		"chat_id", chatID,
		"message_id", result.MessageID,
		"filename", filename)
	return nil
}
