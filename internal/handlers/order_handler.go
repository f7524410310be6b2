package handlers

import (
	"net/http"

	"storefront/internal/dto"
	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func (h *OrderHandler) History(c *gin.Context) {
	limit, offset := pagination(c)

	page, err := h.orders.History(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": page.Orders,
		"total":  page.Total,
	})
}

func (h *OrderHandler) Detail(c *gin.Context) {
	d, err := h.orders.Detail(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":          d.Order,
		"status_updates": d.StatusUpdates,
	})
}

func (h *OrderHandler) Confirmation(c *gin.Context) {
	conf, err := h.orders.Confirmation(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":      conf.Order,
		"first_view": conf.FirstView,
	})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	order, err := h.orders.ChangeStatus(c.Request.Context(), c.Param("number"), service.ChangeStatusInput{
		Status: models.OrderStatus(req.Status),
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
