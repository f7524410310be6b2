package handlers

import (
	"net/http"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviews service.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(reviews service.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, log: log}
}

type submitReviewRequest struct {
	Rating  float64 `json:"rating" binding:"required"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
}

func (h *ReviewHandler) Submit(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}

	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	rv, err := h.reviews.Submit(c.Request.Context(), productID, service.SubmitReviewInput{
		Rating:   req.Rating,
		Subject:  req.Subject,
		Body:     req.Body,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": rv})
}

type voteRequest struct {
	Helpful *bool `json:"helpful" binding:"required"`
}

func (h *ReviewHandler) Vote(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Helpful == nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	res, err := h.reviews.Vote(c.Request.Context(), id, *req.Helpful)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReviewHandler) Queue(c *gin.Context) {
	limit, offset := pagination(c)

	page, err := h.reviews.Queue(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": page.Reviews,
		"total":   page.Total,
	})
}

type moderateRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Reason string `json:"reason"`
}

func (h *ReviewHandler) Approve(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	n, err := h.reviews.Approve(c.Request.Context(), req.IDs)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *ReviewHandler) Hide(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", nil))
		return
	}

	n, err := h.reviews.Hide(c.Request.Context(), req.IDs, req.Reason)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
