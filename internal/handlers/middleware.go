package handlers

import (
	"net/http"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/msgs"
	"socketWhiteboard/internal/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const ctxKeyUsername = "username"

func MustAuthenticateMiddleware(verifier interfaces.TokenVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		jwtToken := utils.BearerToken(ctx.GetHeader("Authorization"))
		if jwtToken == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: msgs.MsgYouMustLoginFirst,
				Errors:  []error{errs.ErrUnauthorized},
			})
			return
		}

		claims, err := verifier.VerifyToken(jwtToken)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, models.Response{
				Success: false,
				Message: msgs.MsgYouMustLoginFirst,
				Errors:  []error{errs.ErrUnauthorized},
			})
			return
		}

		ctx.Set(ctxKeyUsername, claims.Username)
		ctx.Set("authenticated", true)
		ctx.Next()
	}
}

// RateLimitMiddleware counts requests per client IP in Redis (INCR + EXPIRE in one pipeline).
// Redis failures let the request through.
func RateLimitMiddleware(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		panic("redis client cannot be nil for RateLimitMiddleware")
	}
	if maxRequests <= 0 || window <= 0 {
		panic("RateLimitMiddleware needs a positive limit and window")
	}

	return func(ctx *gin.Context) {
		key := "ratelimit:" + ctx.ClientIP()

		pipe := rdb.Pipeline()
		incr := pipe.Incr(ctx.Request.Context(), key)
		pipe.Expire(ctx.Request.Context(), key, window)
		if _, err := pipe.Exec(ctx.Request.Context()); err != nil {
			logrus.WithError(err).Warn("rate limit check failed")
			ctx.Next()
			return
		}

		if incr.Val() > int64(maxRequests) {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, models.Response{
				Success: false,
				Message: msgs.MsgOperationFailed,
				Errors:  []error{errs.ErrTooManyRequests},
			})
			return
		}
		ctx.Next()
	}
}
