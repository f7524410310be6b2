package handlers

import (
	"net/http"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	cart service.CartService
	log  *zap.Logger
}

func NewCartHandler(cart service.CartService, log *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, log: log}
}

type addItemRequest struct {
	ProductID  uint                         `json:"product_id" binding:"required"`
	Quantity   int                          `json:"quantity"`
	Variations []service.VariationSelection `json:"variations"`
}

func (h *CartHandler) View(c *gin.Context) {
	view, err := h.cart.View(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	view, err := h.cart.AddItem(c.Request.Context(), service.AddItemInput{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Variations: req.Variations,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) DecrementItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	view, err := h.cart.DecrementItem(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	view, err := h.cart.RemoveItem(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Merge переливает анонимную корзину в корзину вошедшего пользователя.
func (h *CartHandler) Merge(c *gin.Context) {
	token, _ := service.CartTokenFromContext(c.Request.Context())
	if err := h.cart.MergeOnLogin(c.Request.Context(), token); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	view, err := h.cart.View(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
