package plant

import (
	"regexp"
	"strings"
)

// Record 一筆植物最佳生長條件
//
// 數值欄位為 nil 表示資料來源缺值或非數字，
// 推薦引擎只會跳過該參數。
type Record struct {
	Name        string   `json:"plant_name"`
	TempC       *float64 `json:"optimal_temp_c"`
	PH          *float64 `json:"optimal_ph"`
	Humidity    *float64 `json:"optimal_humidity"`
	NutrientPPM *float64 `json:"optimal_nutrient_ppm"`
}

// entry 記錄與載入時計算好的正規化名稱
type entry struct {
	record Record
	clean  string // 小寫、去前後空白
	simple string // clean 去掉括號段落
}

// 與括號內容貪婪匹配：第一個 "(" 到最後一個 ")"
var parenthetical = regexp.MustCompile(`\(.*\)`)

// NormalizeName 小寫並去除前後空白
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StripParenthetical 去除括號段落後再去除前後空白
func StripParenthetical(normalized string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(normalized, ""))
}

func newEntry(r Record) entry {
	clean := NormalizeName(r.Name)
	return entry{
		record: r,
		clean:  clean,
		simple: StripParenthetical(clean),
	}
}
