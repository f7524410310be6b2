package handlers

import (
	"net/http"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	log      *zap.Logger
}

func NewCheckoutHandler(checkout service.CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, log: log}
}

// Start принимает адрес доставки и высылает код подтверждения на email.
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req service.ShippingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	state, err := h.checkout.Start(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"step":  state.Step,
		"email": state.Shipping.Email,
	})
}

func (h *CheckoutHandler) Current(c *gin.Context) {
	state, err := h.checkout.Current(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *CheckoutHandler) Resend(c *gin.Context) {
	if err := h.checkout.ResendCode(c.Request.Context()); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type verifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Verify проверяет код и создаёт заказ из корзины.
func (h *CheckoutHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	order, err := h.checkout.VerifyAndPlaceOrder(c.Request.Context(), req.Code, c.ClientIP())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}
