package disease

import (
	"context"
	"errors"
	"fmt"
	"math"

	"hydro-advisor/internal/pkg/common"
)

// Label 模型輸出類別
type Label string

const (
	LabelHealthy Label = "Healthy"
	LabelPowdery Label = "Powdery"
	LabelRust    Label = "Rust"
)

// Labels 依模型輸出索引排列
var Labels = []Label{LabelHealthy, LabelPowdery, LabelRust}

// ErrMalformedOutput 模型輸出形狀不符
var ErrMalformedOutput = errors.New("malformed classifier output")

// Prediction 辨識結果
type Prediction struct {
	Disease    Label   `json:"disease"`
	Confidence float64 `json:"confidence"` // 百分比，兩位小數
}

// Classifier 預先訓練好的葉片病害模型
type Classifier interface {
	Classify(ctx context.Context, tensor *Tensor) (Prediction, error)
}

// FromProbabilities 取最大機率的類別，信心值轉為百分比
func FromProbabilities(probs []float64) (Prediction, error) {
	if len(probs) != len(Labels) {
		return Prediction{}, fmt.Errorf("%w: expected %d classes, got %d", ErrMalformedOutput, len(Labels), len(probs))
	}

	best := 0
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Prediction{}, fmt.Errorf("%w: non-finite probability at %d", ErrMalformedOutput, i)
		}
		if p > probs[best] {
			best = i
		}
	}
	return Prediction{
		Disease:    Labels[best],
		Confidence: common.Round(probs[best]*100, 2),
	}, nil
}
