package router

import (
	"fmt"
	"strings"

	"github.com/netbill-next/internal/cache"
	"github.com/netbill-next/internal/config"
	adminhandlers "github.com/netbill-next/internal/http/handlers/admin"
	"github.com/netbill-next/internal/http/response"
	"github.com/netbill-next/internal/logger"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "nb"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录过于频繁，请稍后重试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		status := gin.H{"status": "ok"}
		if models.DB == nil {
			status["status"] = "degraded"
			status["database"] = "uninitialized"
		}
		response.Success(ctx, status)
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), adminHandler.OperatorLogin)
		}

		// 运维接口（需鉴权）
		ops := apiV1.Group("/ops")
		ops.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.OperatorRepo))
		{
			ops.GET("/me", adminHandler.GetProfile)

			ops.POST("/settlement/run", adminHandler.RunSettlement)
			ops.POST("/settlement/retry-failed", adminHandler.RetryFailedSettlements)
			ops.POST("/settlement/requeue-stuck", adminHandler.RequeueStuckSettlements)
			ops.GET("/settlement/stats", adminHandler.GetSettlementStats)

			ops.GET("/payments", adminHandler.GetPayments)
			ops.GET("/payments/:id", adminHandler.GetPayment)

			ops.GET("/locks", adminHandler.GetLocks)
			ops.POST("/locks/expire-stale", adminHandler.ExpireStaleLocks)

			ops.GET("/ledger/entries", adminHandler.GetLedgerEntries)
			ops.GET("/accounts/:account_no", adminHandler.GetBillingAccount)
		}
	}

	return r
}
