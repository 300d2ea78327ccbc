package api

import (
	"fmt"
	"time"

	"hydro-advisor/internal/api/handlers/advisor"
	"hydro-advisor/internal/api/handlers/auth"
	diseaseHandler "hydro-advisor/internal/api/handlers/disease"
	"hydro-advisor/internal/api/handlers/health"
	"hydro-advisor/internal/api/middleware"
	"hydro-advisor/internal/core/account"
	"hydro-advisor/internal/core/disease"
	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/symptom"
	"hydro-advisor/internal/infrastructure/config"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 路由所需的服務
type Deps struct {
	Dataset  *plant.Dataset
	Detector *symptom.Detector
	Disease  *disease.Service // 模型停用時為 nil
	Accounts *account.Service
	Sessions *account.Sessions
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if deps.Dataset == nil || deps.Accounts == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("dataset, account service and sessions are required")
	}
	if deps.Detector == nil {
		deps.Detector = symptom.NewDetector()
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)))
	}

	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Dataset, deps.Disease)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	advisorHandler := advisor.NewHandler(deps.Dataset, deps.Detector, cfg.App.Debug)
	diseaseH := diseaseHandler.NewHandler(deps.Disease, cfg.Server.MaxBodyBytes, cfg.App.Debug)
	authHandler := auth.NewHandler(deps.Accounts, deps.Sessions, cfg.Session, cfg.App.Debug)

	// API 路由組
	api := router.Group("/api/v1")
	{
		api.POST("/predict", advisorHandler.HandlePredict)
		api.GET("/plants", advisorHandler.HandlePlants)
		api.POST("/chat", advisorHandler.HandleChat)
		api.POST("/disease-predict", diseaseH.HandlePredict)

		api.POST("/register", authHandler.HandleRegister)
		api.POST("/login", authHandler.HandleLogin)
		api.POST("/logout", authHandler.HandleLogout)
		api.GET("/me", middleware.SessionAuth(deps.Sessions, cfg.Session.CookieName), authHandler.HandleMe)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Int("plants", deps.Dataset.Len()),
		zap.Bool("classifier_enabled", deps.Disease != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
