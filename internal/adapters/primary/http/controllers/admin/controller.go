package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mel762/telegramTarorApp/internal/usecases/notifications"
)

const adminTokenHeader = "X-Admin-Token"

type notificationTicker interface {
	Tick(ctx context.Context, now time.Time) (notifications.TickReport, error)
}

type pendingExpirer interface {
	ExpirePending(ctx context.Context) (int64, error)
}

// Controller ручной запуск фоновых операций; без токена маршруты не регистрируются
type Controller struct {
	Notifications notificationTicker
	Payments      pendingExpirer
	Token         string
	Log           *slog.Logger
}

func New(
	notificationsService notificationTicker,
	payments pendingExpirer,
	token string,
	log *slog.Logger,
) *Controller {
	return &Controller{
		Notifications: notificationsService,
		Payments:      payments,
		Token:         token,
		Log:           log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	if c.Token == "" {
		return
	}

	admin := router.Group("/admin", c.authorize)
	{
		admin.POST("/notifications/tick", c.runTick)
		admin.POST("/payments/expire", c.expirePayments)
	}
}

func (c *Controller) authorize(ctx *gin.Context) {
	token := ctx.GetHeader(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.Token)) != 1 {
		c.Log.Warn("admin request with invalid token", "client_ip", ctx.ClientIP())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx.Next()
}

// runTick внеочередной тик планировщика уведомлений
func (c *Controller) runTick(ctx *gin.Context) {
	report, err := c.Notifications.Tick(ctx.Request.Context(), time.Now().UTC())
	if err != nil {
		c.Log.Error("manual notification tick failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func (c *Controller) expirePayments(ctx *gin.Context) {
	expired, err := c.Payments.ExpirePending(ctx.Request.Context())
	if err != nil {
		c.Log.Error("manual payment expiry failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"expired": expired})
}
