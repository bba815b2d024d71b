package telegram

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type updateHandler interface {
	HandleUpdate(ctx context.Context, update *domain.Update) error
}

type Controller struct {
	TgService   updateHandler
	SecretToken string
	Log         *slog.Logger
}

func New(tgService updateHandler, secretToken string, log *slog.Logger) *Controller {
	return &Controller{
		TgService:   tgService,
		SecretToken: secretToken,
		Log:         log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook/", c.handleWebhook)
}

func (c *Controller) handleWebhook(ctx *gin.Context) {
	if c.SecretToken != "" {
		secretToken := ctx.GetHeader(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(secretToken), []byte(c.SecretToken)) != 1 {
			c.Log.Warn("webhook secret token mismatch", "client_ip", ctx.ClientIP())
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update domain.Update
	if err := ctx.ShouldBindJSON(&update); err != nil {
		c.Log.Error("failed to bind webhook request", "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	c.Log.Debug("received webhook update", "update_id", update.UpdateID)

	if err := c.TgService.HandleUpdate(ctx.Request.Context(), &update); err != nil {
		// бизнес-ошибку повтор от Telegram не исправит
		if domain.IsBusinessError(err) {
			ctx.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		c.Log.Error("failed to handle update",
			"error", err,
			"update_id", update.UpdateID,
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process update"})
		return
	}

	// Telegram ожидает 200 OK в ответ
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}
