package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/office_hours/internal/audit"
	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	currentUserKey  = "current_user"
	requestIDMaxLen = 64
)

// Claims токен выдаёт сервис аккаунтов, здесь он только проверяется
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequestID берёт X-Request-ID из запроса или генерирует новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Request = c.Request.WithContext(audit.WithRequestID(c.Request.Context(), rid))

		c.Next()
	}
}

// Logger журнал запросов в zap
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case status >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
	}
}

// Identity проверяет Bearer токен и кладёт пользователя в контекст
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		actor, err := parseToken(token, secret)
		if err != nil {
			fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		c.Set(currentUserKey, actor)
		c.Next()
	}
}

func parseToken(token string, secret []byte) (model.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Actor{}, err
	}

	role := model.Role(claims.Role)
	switch role {
	case model.RoleStudent, model.RoleInstructor, model.RoleAdmin:
	default:
		return model.Actor{}, errors.New("unknown role")
	}
	if claims.UserID <= 0 {
		return model.Actor{}, errors.New("missing user id")
	}

	return model.Actor{ID: claims.UserID, Role: role}, nil
}

// RoleAuth пропускает только указанные роли
func RoleAuth(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, found := currentUser(c)
		if !found {
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		fail(c, http.StatusForbidden, "FORBIDDEN", "insufficient role")
	}
}

// currentUser достаёт пользователя, положенного Identity
func currentUser(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(currentUserKey)
	actor, isActor := v.(model.Actor)
	if !exists || !isActor {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return model.Actor{}, false
	}
	return actor, true
}
