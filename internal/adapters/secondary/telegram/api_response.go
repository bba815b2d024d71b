package telegram

import (
	"encoding/json"
	"fmt"
)

// APIResponse базовая структура ответа от Telegram API
type APIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// APIError ответ с ok=false
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error [code=%d]: %s", e.Code, e.Description)
}

// IsConflict 409: активен webhook или запущен другой экземпляр polling
func (e *APIError) IsConflict() bool {
	return e.Code == 409
}
