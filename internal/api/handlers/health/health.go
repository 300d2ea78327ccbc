package health

import (
	"net/http"
	"runtime"
	"time"

	"hydro-advisor/internal/core/cache"
	"hydro-advisor/internal/core/disease"
	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/queue"
	"hydro-advisor/internal/infrastructure/config"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Plants    int                    `json:"plants"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// Handler 健康檢查
type Handler struct {
	cfg     *config.Config
	dataset *plant.Dataset
	disease *disease.Service
}

// NewHandler 創建處理程序；diseaseSvc 可為 nil
func NewHandler(cfg *config.Config, dataset *plant.Dataset, diseaseSvc *disease.Service) *Handler {
	return &Handler{cfg: cfg, dataset: dataset, disease: diseaseSvc}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Plants:    h.dataset.Len(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.disease != nil {
		q := h.disease.QueueStatus()
		s := h.disease.CacheStats()
		response.Queue = &q
		response.Cache = &s
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 資料集已載入且推論隊列未滿時才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.dataset.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "plant dataset is empty"})
		return
	}
	if h.disease != nil {
		if q := h.disease.QueueStatus(); q.QueueLength >= q.MaxQueueSize {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "classifier queue is full"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
