package user

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/respond"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
)

type Controller struct {
	UserUseCase usecase.IUserUseCase
	Log         *slog.Logger
}

func New(userUseCase usecase.IUserUseCase, log *slog.Logger) *Controller {
	return &Controller{
		UserUseCase: userUseCase,
		Log:         log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/user")
	{
		api.GET("/:telegramId", c.getUser)
		api.POST("/settings", c.updateSettings)
		api.POST("/upgrade", c.upgrade)
	}
}

// getUser профиль по Telegram ID, при первом обращении пользователь создаётся
func (c *Controller) getUser(ctx *gin.Context) {
	user, err := c.UserUseCase.GetOrCreate(
		ctx.Request.Context(),
		ctx.Param("telegramId"),
		optionalQuery(ctx, "username"),
		optionalQuery(ctx, "first_name"),
		respond.Lang(ctx.Query("language_code")),
	)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, toResponse(user))
}

func (c *Controller) updateSettings(ctx *gin.Context) {
	var req SettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	err := c.UserUseCase.UpdateSettings(ctx.Request.Context(), req.UserID, domain.NotificationSettings{
		NotificationsEnabled: req.NotificationsEnabled,
		NotificationTime:     req.NotificationTime,
		ReceiveDailyReading:  req.ReceiveDailyReading,
	})
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (c *Controller) upgrade(ctx *gin.Context) {
	var req UpgradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	tier, err := domain.ParseTier(req.Tier)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	if err := c.UserUseCase.UpgradeTier(ctx.Request.Context(), req.UserID, tier); err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "tier": tier})
}

func optionalQuery(ctx *gin.Context, key string) *string {
	value, ok := ctx.GetQuery(key)
	if !ok || value == "" {
		return nil
	}
	return &value
}
