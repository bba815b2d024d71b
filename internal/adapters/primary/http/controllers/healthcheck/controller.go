package healthcheckController

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyTimeout = 2 * time.Second

// Pinger зависимость, без которой сервис не готов принимать трафик
type Pinger func(ctx context.Context) error

type HealthCheckController struct {
	checks map[string]Pinger
	log    *slog.Logger
}

func New(checks map[string]Pinger, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		checks: checks,
		log:    log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/ready", c.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// health базовая проверка (всегда возвращает 200)
func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tarot-app",
	})
}

// ready проверка готовности (пингует БД и прочие обязательные зависимости)
func (c *HealthCheckController) ready(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), readyTimeout)
	defer cancel()

	failed := make([]string, 0)
	for name, ping := range c.checks {
		if err := ping(pingCtx); err != nil {
			c.log.Error("dependency not ready", "dependency", name, "error", err)
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "not ready",
			"unavailable": failed,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
