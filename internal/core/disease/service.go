package disease

import (
	"context"
	"errors"
	"time"

	"hydro-advisor/internal/core/cache"
	"hydro-advisor/internal/core/queue"
	"hydro-advisor/internal/pkg/common"

	"go.uber.org/zap"
)

const cachePrefix = "disease"

// Service 串接前處理、快取、推論隊列與模型
type Service struct {
	classifier Classifier
	cache      *cache.CacheManager
	queue      *queue.Manager
	timeout    time.Duration
	maxPixels  int
}

// NewService 創建病害辨識服務；cacheManager 可為 nil
func NewService(classifier Classifier, cacheManager *cache.CacheManager, q *queue.Manager, timeout time.Duration) *Service {
	return &Service{
		classifier: classifier,
		cache:      cacheManager,
		queue:      q,
		timeout:    timeout,
		maxPixels:  DefaultMaxPixels,
	}
}

// WithMaxPixels 設定解碼前的像素上限
func (s *Service) WithMaxPixels(maxPixels int) *Service {
	if maxPixels > 0 {
		s.maxPixels = maxPixels
	}
	return s
}

// Diagnose 辨識上傳圖片；錯誤一律為 *common.CustomError
func (s *Service) Diagnose(ctx context.Context, data []byte) (Prediction, error) {
	key := cache.Key(cachePrefix, data)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var p Prediction
		if err := common.ParseJSONBytes([]byte(cached), &p); err == nil {
			common.LogCacheHit(cachePrefix)
			return p, nil
		}
	}
	common.LogCacheMiss(cachePrefix)

	tensor, format, err := Preprocess(data, s.maxPixels)
	if err != nil {
		return Prediction{}, common.ErrInvalidImageFormat.WithErr(err)
	}
	common.LogDebug("Image preprocessed", zap.String("format", format), zap.Int("bytes", len(data)))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var prediction Prediction
	err = s.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		prediction, err = s.classifier.Classify(ctx, tensor)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrClosed):
			return Prediction{}, common.ErrClassifierQueueFull.WithErr(err)
		case errors.Is(err, context.DeadlineExceeded):
			return Prediction{}, common.ErrGatewayTimeout.WithErr(err)
		default:
			return Prediction{}, common.ErrClassifierFailure.WithErr(err)
		}
	}

	if encoded, err := common.ToJSON(prediction); err == nil {
		if err := s.cache.Set(ctx, key, encoded); err != nil {
			common.LogWarn("Failed to cache prediction", zap.Error(err))
		}
	}
	return prediction, nil
}

// QueueStatus 推論隊列狀態
func (s *Service) QueueStatus() queue.Status {
	return s.queue.GetQueueStatus()
}

// CacheStats 快取統計
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}
