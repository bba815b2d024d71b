package respond

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mel762/telegramTarorApp/internal/domain"
)

// StatusFor код ответа для ошибки use case слоя
func StatusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error пишет ошибку в JSON; 5xx логируются с деталями, клиенту уходит общий текст
func Error(ctx *gin.Context, log *slog.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"error", err,
			"path", ctx.FullPath(),
		)
		ctx.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

// BadRequest ошибка разбора тела запроса
func BadRequest(ctx *gin.Context, log *slog.Logger, err error) {
	log.Warn("failed to bind request",
		"error", err,
		"path", ctx.FullPath(),
	)
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}

// Denied отказ по квоте: 200, чтобы клиент отличал его от ошибки транспорта.
// error и reason содержат одну и ту же локализованную причину.
func Denied(ctx *gin.Context, reason string) {
	ctx.JSON(http.StatusOK, gin.H{
		"allow":        false,
		"error":        reason,
		"reason":       reason,
		"limitReached": true,
	})
}

// Lang язык из запроса; пустой остаётся пустым, чтобы не перезаписать сохранённый
func Lang(code string) domain.Language {
	if code == "" {
		return ""
	}
	return domain.ParseLanguage(code)
}
