package recommend

import (
	"errors"
	"fmt"
	"math"

	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/pkg/common"
)

// OptimalMessage 沒有任何參數超出容許範圍時的唯一訊息
const OptimalMessage = "✅ Conditions are optimal!"

// ErrMissingOptimum 該參數的最佳值缺失或非數字
var ErrMissingOptimum = errors.New("optimal value missing")

// Reading 使用者目前的環境讀數，未提供的欄位為 0
type Reading struct {
	TempC       float64 `json:"temperature_c"`
	PH          float64 `json:"ph"`
	Humidity    float64 `json:"humidity_pct"`
	NutrientPPM float64 `json:"nutrient_ppm"`
}

// Parameter 參數名稱
type Parameter string

const (
	ParamTemperature Parameter = "temperature"
	ParamPH          Parameter = "ph"
	ParamHumidity    Parameter = "humidity"
	ParamNutrients   Parameter = "nutrients"
)

// Suggestion 一則調整建議
type Suggestion struct {
	Parameter Parameter `json:"parameter,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Magnitude float64   `json:"magnitude,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Message   string    `json:"message"`
}

// IsOptimal 是否為「條件最佳」訊息
func (s Suggestion) IsOptimal() bool {
	return s.Parameter == "" && s.Message == OptimalMessage
}

// rule 單一參數的比對規則
type rule struct {
	param     Parameter
	icon      string
	label     string // 訊息中的參數名稱
	unit      string
	unitSpace bool // 單位前是否空一格（"20 ppm" vs "5.0°C"）
	places    int
	tolerance float64
	above     string // 讀數高於最佳值時的動作
	below     string // 讀數低於最佳值時的動作
	reading   func(Reading) float64
	optimum   func(plant.Record) *float64
}

// 順序即輸出順序：溫度、pH、濕度、養分
var rules = []rule{
	{
		param: ParamTemperature, icon: "🌡️", label: "temperature", unit: "°C",
		places: 1, tolerance: 0.5, above: "Decrease", below: "Increase",
		reading: func(r Reading) float64 { return r.TempC },
		optimum: func(p plant.Record) *float64 { return p.TempC },
	},
	{
		param: ParamPH, icon: "⚗️", label: "pH", unit: "",
		places: 2, tolerance: 0.1, above: "Lower", below: "Raise",
		reading: func(r Reading) float64 { return r.PH },
		optimum: func(p plant.Record) *float64 { return p.PH },
	},
	{
		param: ParamHumidity, icon: "💧", label: "humidity", unit: "%",
		places: 1, tolerance: 1.0, above: "Reduce", below: "Increase",
		reading: func(r Reading) float64 { return r.Humidity },
		optimum: func(p plant.Record) *float64 { return p.Humidity },
	},
	{
		param: ParamNutrients, icon: "🥗", label: "nutrients", unit: "ppm", unitSpace: true,
		places: 1, tolerance: 20, above: "Dilute", below: "Increase",
		reading: func(r Reading) float64 { return r.NutrientPPM },
		optimum: func(p plant.Record) *float64 { return p.NutrientPPM },
	},
}

// check 比對單一參數；err 只影響該參數
func (r rule) check(reading Reading, optimal plant.Record) (Suggestion, bool, error) {
	opt := r.optimum(optimal)
	if opt == nil {
		return Suggestion{}, false, ErrMissingOptimum
	}
	cur := r.reading(reading)
	if math.IsNaN(*opt) || math.IsInf(*opt, 0) || math.IsNaN(cur) || math.IsInf(cur, 0) {
		return Suggestion{}, false, fmt.Errorf("%s: non-finite value", r.param)
	}

	diff := common.Round(cur-*opt, r.places)
	if math.Abs(diff) <= r.tolerance {
		return Suggestion{}, false, nil
	}

	direction := r.below
	if diff > 0 {
		direction = r.above
	}
	magnitude := math.Abs(diff)

	unit := r.unit
	if r.unitSpace {
		unit = " " + unit
	}
	return Suggestion{
		Parameter: r.param,
		Direction: direction,
		Magnitude: magnitude,
		Unit:      r.unit,
		Message:   fmt.Sprintf("%s %s %s by %s%s", r.icon, direction, r.label, common.FormatDecimal(magnitude), unit),
	}, true, nil
}

// Result 含略過參數的完整結果
type Result struct {
	Suggestions []Suggestion
	Skipped     map[Parameter]error
}

// Evaluate 逐一比對四個參數，單一參數失敗只會被記錄並略過
func Evaluate(reading Reading, optimal plant.Record) Result {
	res := Result{Skipped: map[Parameter]error{}}
	for _, r := range rules {
		s, ok, err := r.check(reading, optimal)
		if err != nil {
			res.Skipped[r.param] = err
			continue
		}
		if ok {
			res.Suggestions = append(res.Suggestions, s)
		}
	}
	if len(res.Suggestions) == 0 {
		res.Suggestions = []Suggestion{{Message: OptimalMessage}}
	}
	return res
}

// Suggest 回傳依序排列的建議；沒有超出容許範圍時只有一則最佳訊息
func Suggest(reading Reading, optimal plant.Record) []Suggestion {
	return Evaluate(reading, optimal).Suggestions
}
