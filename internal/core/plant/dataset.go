package plant

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hydro-advisor/internal/pkg/common"

	"go.uber.org/zap"
)

// CSV 欄位名稱
const (
	ColumnName        = "plant_name"
	ColumnTempC       = "optimal_temp_c"
	ColumnPH          = "optimal_ph"
	ColumnHumidity    = "optimal_humidity"
	ColumnNutrientPPM = "optimal_nutrient_ppm"
)

var requiredColumns = []string{ColumnName, ColumnTempC, ColumnPH, ColumnHumidity, ColumnNutrientPPM}

// ErrEmptyDataset 資料集沒有任何有效列
var ErrEmptyDataset = errors.New("plant dataset has no usable rows")

// LoadResult 載入統計
type LoadResult struct {
	Total      int      // 資料列數（不含表頭）
	Loaded     int      // 成功載入列數
	Rejected   int      // 被拒絕列數
	Incomplete int      // 有至少一個數值缺失的列
	Errors     []string // 被拒絕原因
}

// Dataset 不可變的植物資料表，啟動時載入一次
type Dataset struct {
	entries []entry
}

// NewDataset 由記錄建立資料集，正規化名稱在此一次算好
func NewDataset(records []Record) *Dataset {
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, newEntry(r))
	}
	return &Dataset{entries: entries}
}

// LoadFile 從 CSV 檔載入資料集
func LoadFile(path string) (*Dataset, *LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open plant dataset: %w", err)
	}
	defer f.Close()

	ds, result, err := Load(f)
	if err != nil {
		return nil, result, fmt.Errorf("failed to load plant dataset %s: %w", path, err)
	}

	common.LogInfo("植物資料集已載入",
		zap.String("path", path),
		zap.Int("total", result.Total),
		zap.Int("loaded", result.Loaded),
		zap.Int("rejected", result.Rejected),
		zap.Int("incomplete", result.Incomplete),
	)
	for _, msg := range result.Errors {
		common.LogWarn("植物資料列被拒絕", zap.String("reason", msg))
	}
	return ds, result, nil
}

// Load 逐行讀取 CSV，缺少必要表頭或沒有任何有效列時回傳錯誤
func Load(r io.Reader) (*Dataset, *LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &LoadResult{}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, result, ErrEmptyDataset
		}
		return nil, result, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, result, fmt.Errorf("missing required csv header: %s", col)
		}
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.Total++
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", result.Total+1, err))
			continue
		}

		rec, complete, err := parseRow(row, headerMap)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", result.Total+1, err))
			continue
		}
		if !complete {
			result.Incomplete++
		}
		records = append(records, rec)
		result.Loaded++
	}

	if len(records) == 0 {
		return nil, result, ErrEmptyDataset
	}
	return NewDataset(records), result, nil
}

func parseRow(row []string, headerMap map[string]int) (Record, bool, error) {
	get := func(col string) string {
		if idx, ok := headerMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	name := get(ColumnName)
	if name == "" {
		return Record{}, false, fmt.Errorf("plant_name is empty")
	}

	complete := true
	optional := func(col string) *float64 {
		v, err := strconv.ParseFloat(get(col), 64)
		if err != nil {
			complete = false
			return nil
		}
		return &v
	}

	rec := Record{
		Name:        name,
		TempC:       optional(ColumnTempC),
		PH:          optional(ColumnPH),
		Humidity:    optional(ColumnHumidity),
		NutrientPPM: optional(ColumnNutrientPPM),
	}
	return rec, complete, nil
}

// Len 資料筆數
func (d *Dataset) Len() int {
	return len(d.entries)
}

// Names 依儲存順序回傳所有植物名稱
func (d *Dataset) Names() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.record.Name
	}
	return names
}

// NormalizedNames 依儲存順序回傳 (clean, simple) 正規化名稱
func (d *Dataset) NormalizedNames() [][2]string {
	out := make([][2]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = [2]string{e.clean, e.simple}
	}
	return out
}
