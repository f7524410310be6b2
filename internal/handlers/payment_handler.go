package handlers

import (
	"net/http"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments service.PaymentService
	log      *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

func (h *PaymentHandler) Methods(c *gin.Context) {
	list, err := h.payments.ListMethods(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": list})
}

type payRequest struct {
	Method        string `json:"method" binding:"required"`
	AccountNumber string `json:"account_number"`
	UseSaved      bool   `json:"use_saved"`
}

func (h *PaymentHandler) Pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	order, err := h.payments.Pay(c.Request.Context(), c.Param("number"), service.PayInput{
		Method:        req.Method,
		AccountNumber: req.AccountNumber,
		UseSaved:      req.UseSaved,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Confirm — прямое подтверждение оплаты без выбора метода.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	order, err := h.payments.Confirm(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
