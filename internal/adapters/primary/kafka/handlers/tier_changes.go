package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/Mel762/telegramTarorApp/internal/domain"
	kafkaPorts "github.com/Mel762/telegramTarorApp/internal/ports/kafka"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
)

// TierChangesHandler применяет изменения тарифа от внешнего биллинга
type TierChangesHandler struct {
	UserUseCase usecase.IUserUseCase
	Log         *slog.Logger
}

func NewTierChangesHandler(userUseCase usecase.IUserUseCase, log *slog.Logger) kafkaPorts.MessageHandler {
	return &TierChangesHandler{
		UserUseCase: userUseCase,
		Log:         log,
	}
}

// HandleMessage некорректное сообщение или неизвестный пользователь - BusinessError, повтор не поможет
func (h *TierChangesHandler) HandleMessage(ctx context.Context, key string, value []byte, headers map[string]string) error {
	var change domain.TierChange
	if err := json.Unmarshal(value, &change); err != nil {
		h.Log.Warn("invalid tier change message", "error", err, "key", key)
		return domain.WrapBusinessError(fmt.Errorf("failed to unmarshal tier change: %w", err))
	}

	if change.TelegramID == "" {
		change.TelegramID = key
	}

	tier, err := domain.ParseTier(change.Tier)
	if err != nil {
		h.Log.Warn("tier change with unknown tier",
			"telegram_id", change.TelegramID,
			"tier", change.Tier)
		return domain.WrapBusinessError(err)
	}

	if err := h.UserUseCase.UpgradeTier(ctx, change.TelegramID, tier); err != nil {
		if domain.IsNotFound(err) || domain.IsValidation(err) {
			h.Log.Warn("tier change rejected",
				"error", err,
				"telegram_id", change.TelegramID)
			return domain.WrapBusinessError(err)
		}
		return fmt.Errorf("failed to apply tier change: %w", err)
	}

	h.Log.Debug("tier change applied",
		"telegram_id", change.TelegramID,
		"tier", tier,
		"source", headers["source"])
	return nil
}
