package disease

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hydro-advisor/internal/infrastructure/config"
	"hydro-advisor/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// predictRequest TensorFlow Serving REST 預測請求
type predictRequest struct {
	Instances [][][][]float32 `json:"instances"`
}

// predictResponse TensorFlow Serving REST 預測回應
type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// servingError 模型服務錯誤回應
type servingError struct {
	Error string `json:"error"`
}

// RemoteClassifier 透過 HTTP 呼叫模型服務
type RemoteClassifier struct {
	client *resty.Client
	model  string
}

// NewRemoteClassifier 創建遠端模型客戶端
func NewRemoteClassifier(cfg config.ClassifierConfig) *RemoteClassifier {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteClassifier{client: client, model: cfg.Model}
}

// Classify 送出單張圖片張量並解析機率輸出
func (c *RemoteClassifier) Classify(ctx context.Context, tensor *Tensor) (Prediction, error) {
	var out predictResponse
	var errBody servingError

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Instances: [][][][]float32{tensor.Nested()}}).
		SetResult(&out).
		SetError(&errBody).
		Post(fmt.Sprintf("/v1/models/%s:predict", c.model))
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to call classifier: %w", err)
	}

	if resp.IsError() {
		msg := errBody.Error
		if msg == "" {
			msg = resp.Status()
		}
		common.LogError("Classifier returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.model),
			zap.String("error", msg),
		)
		return Prediction{}, fmt.Errorf("classifier error (status %d): %s", resp.StatusCode(), msg)
	}

	if len(out.Predictions) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty predictions", ErrMalformedOutput)
	}
	return FromProbabilities(out.Predictions[0])
}
