package invoice

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mel762/telegramTarorApp/internal/adapters/primary/http/controllers/respond"
	"github.com/Mel762/telegramTarorApp/internal/domain"
	"github.com/Mel762/telegramTarorApp/internal/ports/usecase"
)

type Controller struct {
	PaymentUseCase usecase.IPaymentUseCase
	Log            *slog.Logger
}

func New(paymentUseCase usecase.IPaymentUseCase, log *slog.Logger) *Controller {
	return &Controller{
		PaymentUseCase: paymentUseCase,
		Log:            log,
	}
}

// InvoiceRequest тело POST /api/create-stars-invoice
type InvoiceRequest struct {
	UserID     string `json:"userId"`
	SpreadType string `json:"spreadType"`
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/create-stars-invoice", c.createInvoice)
}

func (c *Controller) createInvoice(ctx *gin.Context) {
	var req InvoiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(ctx, c.Log, err)
		return
	}

	spread, err := domain.ParseSpreadType(req.SpreadType)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	link, err := c.PaymentUseCase.CreateInvoiceLink(ctx.Request.Context(), req.UserID, spread)
	if err != nil {
		respond.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"invoiceLink": link})
}
