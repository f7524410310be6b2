package middleware

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/dto"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cartCookieName = "cart_id"

// ExtractBearerToken извлекает токен из заголовка Authorization,
// устойчиво к кавычкам и лишним символам.
func ExtractBearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	if i := strings.IndexRune(t, ','); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.Trim(t, " \"'")
	return t, true
}

func parseIdentity(tokenStr, secret string) (service.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return service.Identity{}, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return service.Identity{}, jwt.ErrTokenInvalidClaims
	}

	id := service.Identity{}
	if v, ok := claims["user_id"].(float64); ok {
		id.UserID = uint(v)
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["first_name"].(string); ok {
		id.FirstName = v
	}
	if v, ok := claims["last_name"].(string); ok {
		id.LastName = v
	}
	if v, ok := claims["is_staff"].(bool); ok {
		id.IsStaff = v
	}
	if id.UserID == 0 || id.Email == "" {
		return service.Identity{}, jwt.ErrTokenInvalidClaims
	}
	return id, nil
}

// AuthOptional кладёт личность в контекст запроса, если токен есть и валиден;
// без токена запрос идёт дальше как анонимный.
func AuthOptional(secret string, identity service.IdentityService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.Next()
			return
		}
		token, ok := ExtractBearerToken(authz)
		if !ok || token == "" {
			c.Next()
			return
		}

		id, err := parseIdentity(token, secret)
		if err != nil {
			log.Warn("Токен не прошёл проверку", zap.Error(err))
			c.Next()
			return
		}

		if _, err := identity.EnsureUser(c.Request.Context(), id); err != nil {
			log.Error("Не удалось завести пользователя из claims", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewInternalError(""))
			return
		}

		c.Request = c.Request.WithContext(service.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// AuthRequired пропускает только запросы с валидным Bearer-токеном.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := service.IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing or invalid token"))
			return
		}
		c.Next()
	}
}

// StaffRequired — только персонал.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := service.IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing or invalid token"))
			return
		}
		if !id.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewForbiddenError("staff only"))
			return
		}
		c.Next()
	}
}

// CartSession выдаёт и продлевает cookie анонимной корзины.
func CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cartCookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
			c.SetCookie(cartCookieName, token, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
		}
		c.Request = c.Request.WithContext(service.WithCartToken(c.Request.Context(), token))
		c.Next()
	}
}
