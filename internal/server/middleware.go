package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/himap/directory/internal/observability/logger"
	"github.com/himap/directory/internal/ratelimit"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

var corsAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS allows any origin. Every response carries the allow headers, with or
// without an Origin on the request. Preflight requests are answered here with
// 200 and never reach the handlers.
func CORS() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders:       corsAllowedHeaders,
		ExposedHeaders:       []string{logger.HeaderRequestID, "Retry-After"},
		OptionsSuccessStatus: http.StatusOK,
	})

	allowHeaders := strings.Join(corsAllowedHeaders, ", ")

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		h := ctx.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusOK)
			return
		}
		ctx.Next()
	}
}

// Recovery turns a panic into the generic 500 body. The stack goes to the
// log only.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithContext(c.Request.Context(), log).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
	})
}

// bearerToken returns the credential from the Authorization header. A
// missing "Bearer" scheme passes the raw value on so verification can
// reject it with a reason.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RateLimit rejects clients that exhausted their bucket with 429 and a
// Retry-After header in whole seconds.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		decision := limiter.Allow(c.Request.Context(), c.ClientIP())
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
