package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return DecodeJSON(bytes.NewReader(data), v)
}

// DecodeJSON 使用統一設定解析 JSON（數字保留為 json.Number）
func DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// OptionalFloat 將 JSON 或表單值轉為浮點數
//
// nil、空字串視為未提供（present=false）；
// 其他無法解析的值回傳錯誤。
func OptionalFloat(v interface{}) (value float64, present bool, err error) {
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return f, true, nil
	case float64:
		return t, true, nil
	case int:
		return float64(t), true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", v)
	}
}

// OptionalString 將 JSON 值轉為字串，非字串一律視為空
func OptionalString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
