package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydro-advisor/internal/api"
	"hydro-advisor/internal/core/account"
	"hydro-advisor/internal/core/cache"
	"hydro-advisor/internal/core/disease"
	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/queue"
	"hydro-advisor/internal/core/symptom"
	"hydro-advisor/internal/infrastructure/config"
	"hydro-advisor/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（內含可選的 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir, cfg.App.Name); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("env", cfg.App.Env),
		zap.String("dataset", cfg.Dataset.Path),
		zap.Bool("classifier_enabled", cfg.Classifier.Enabled),
		zap.String("classifier_url", cfg.Classifier.BaseURL),
		zap.String("accounts_backend", cfg.Accounts.Backend),
		zap.String("session_secret", config.MaskSecret(cfg.Session.Secret)),
	)

	// 植物資料集載入失敗時無法提供服務
	dataset, _, err := plant.LoadFile(cfg.Dataset.Path)
	if err != nil {
		common.LogFatal("Failed to load plant dataset", zap.Error(err), zap.String("path", cfg.Dataset.Path))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := newAccountStore(startCtx, cfg.Accounts)
	cancelStart()
	if err != nil {
		common.LogFatal("Failed to initialize account store", zap.Error(err), zap.String("backend", cfg.Accounts.Backend))
	}

	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		common.LogWarn("SESSION_SECRET not set, using a random secret; sessions will not survive restarts")
	}
	sessions := account.NewSessions(secret, cfg.Session.TTL)

	// 病害辨識：模型服務、結果快取與推論隊列
	var diseaseSvc *disease.Service
	var cacheManager *cache.CacheManager
	var inferenceQueue *queue.Manager
	if cfg.Classifier.Enabled {
		cacheManager = cache.NewManager(cfg.Cache)
		inferenceQueue = queue.NewManager(cfg.Classifier.Workers, cfg.Classifier.QueueSize)
		diseaseSvc = disease.NewService(
			disease.NewRemoteClassifier(cfg.Classifier),
			cacheManager,
			inferenceQueue,
			cfg.Classifier.Timeout,
		).WithMaxPixels(cfg.Classifier.MaxPixels)
	}

	router, err := api.SetupRouter(cfg, api.Deps{
		Dataset:  dataset,
		Detector: symptom.NewDetector(),
		Disease:  diseaseSvc,
		Accounts: account.NewService(store, cfg.Accounts.BcryptCost),
		Sessions: sessions,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
	}

	if inferenceQueue != nil {
		inferenceQueue.Close()
	}
	if err := cacheManager.Close(); err != nil {
		common.LogWarn("Failed to close cache", zap.Error(err))
	}
	if err := store.Close(ctx); err != nil {
		common.LogWarn("Failed to close account store", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// newAccountStore 依設定選擇帳號儲存後端
func newAccountStore(ctx context.Context, cfg config.AccountsConfig) (account.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return account.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendMongo:
		return account.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		common.LogWarn("Using in-memory account store; accounts are lost on restart")
		return account.NewMemoryStore(), nil
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand 失敗時退回 UUID
		return common.GenerateUUID() + common.GenerateUUID()
	}
	return hex.EncodeToString(b)
}
