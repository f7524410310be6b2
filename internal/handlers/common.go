package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeServiceError переводит ошибку сервиса в HTTP-ответ единого формата.
func writeServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError("authentication required"))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewForbiddenError("access denied"))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("resource not found"))
	case errors.Is(err, service.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("cart is empty", nil))
	case errors.Is(err, service.ErrQuantityInvalid):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("quantity must be positive", nil))
	case errors.Is(err, service.ErrNoCheckoutState):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("no active checkout"))
	case errors.Is(err, service.ErrCheckoutWrongStep):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(err.Error(), nil))
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid or expired code", nil))
	case errors.Is(err, service.ErrTooManyRequests):
		c.JSON(http.StatusTooManyRequests, dto.NewRateLimitedError("try again later"))
	case errors.Is(err, service.ErrStatusInvalid):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid order status", nil))
	case errors.Is(err, service.ErrOrderNotPaid):
		c.JSON(http.StatusConflict, dto.NewConflictError("order is not paid"))
	case errors.Is(err, service.ErrUnknownMethod):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("unknown payment method", nil))
	case errors.Is(err, service.ErrBadAccountNumber):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid account number for method", nil))
	case errors.Is(err, service.ErrNoSavedAccount):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("no saved account for this method", nil))
	case errors.Is(err, service.ErrRatingInvalid):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("rating must be between 1 and 5", nil))
	case errors.Is(err, service.ErrReviewLimit):
		c.JSON(http.StatusTooManyRequests, dto.NewRateLimitedError("daily review limit reached"))
	case errors.Is(err, service.ErrNothingSelected):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("no items selected", nil))
	default:
		log.Error("Внутренняя ошибка обработчика", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(""))
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name, nil))
		return 0, false
	}
	return uint(v), true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
