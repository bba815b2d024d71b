package reading

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/respond"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
)

type Controller struct {
	TarotUseCase usecase.ITarotUseCase
	Log          *slog.Logger
}

func New(tarotUseCase usecase.ITarotUseCase, log *slog.Logger) *Controller {
	return &Controller{
		TarotUseCase: tarotUseCase,
		Log:          log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/reading", c.handleReading)
		api.POST("/chat", c.handleChat)
		api.GET("/readings/:telegramId", c.handleListReadings)
		api.GET("/readings/:telegramId/:readingId", c.handleGetReading)
	}
}

func (c *Controller) handleReading(ctx *gin.Context) {
	var req ReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	spread, err := domain.ParseSpreadType(req.SpreadType)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	result, err := c.TarotUseCase.RequestReading(ctx.Request.Context(), usecase.ReadingRequest{
		TelegramID: req.UserID,
		Username:   req.Username,
		FirstName:  req.Name,
		Lang:       respond.Lang(req.Lang),
		Question:   req.Question,
		SpreadType: spread,
		Cards:      req.Cards,
	})
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	if result.LimitReached {
		respond.Denied(ctx, result.Reason)
		return
	}

	ctx.JSON(http.StatusOK, ReadingResponse{
		ReadingID: result.ReadingID,
		Reading:   result.Reading,
		Degraded:  result.Degraded,
	})
}

func (c *Controller) handleChat(ctx *gin.Context) {
	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	result, err := c.TarotUseCase.ContinueChat(ctx.Request.Context(), usecase.ChatRequest{
		TelegramID: req.UserID,
		History:    req.History,
		NewMessage: req.NewMessage,
		Context:    req.Context.toDomain(),
	})
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, ChatResponse{
		Response:     result.Response,
		LimitReached: result.LimitReached,
	})
}

func (c *Controller) handleListReadings(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respond.BadRequest(ctx, c.Log, err)
			return
		}
		limit = parsed
	}

	readings, err := c.TarotUseCase.ListReadings(ctx.Request.Context(), ctx.Param("telegramId"), limit)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	items := make([]HistoryItem, 0, len(readings))
	for _, r := range readings {
		items = append(items, toHistoryItem(r))
	}
	ctx.JSON(http.StatusOK, HistoryResponse{Readings: items})
}

func (c *Controller) handleGetReading(ctx *gin.Context) {
	readingID, err := uuid.Parse(ctx.Param("readingId"))
	if err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	reading, err := c.TarotUseCase.GetReading(ctx.Request.Context(), ctx.Param("telegramId"), readingID)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, toHistoryItem(reading))
}
