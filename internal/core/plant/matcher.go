package plant

import "strings"

// Matcher 將自由輸入的植物名稱解析為單一資料列
type Matcher struct {
	dataset *Dataset
}

// NewMatcher 創建匹配器
func NewMatcher(ds *Dataset) *Matcher {
	return &Matcher{dataset: ds}
}

// Resolve 依序嘗試：完整名稱精確匹配、去括號精確匹配、
// 完整名稱子字串、去括號子字串。每一階段取資料集順序中的第一筆，
// 不做最佳匹配。去括號階段的查詢本身也會去括號，
// 因此 "Tomato (Solanum lycopersicum)" 可以對到 "tomato"。
// 空白查詢直接回傳 false。
func (m *Matcher) Resolve(query string) (Record, bool) {
	q := NormalizeName(query)
	if q == "" || m.dataset == nil {
		return Record{}, false
	}

	qs := StripParenthetical(q)
	if qs == "" {
		qs = q
	}

	stages := []func(e entry) bool{
		func(e entry) bool { return e.clean == q },
		func(e entry) bool { return e.simple == qs },
		func(e entry) bool { return strings.Contains(e.clean, q) },
		func(e entry) bool { return strings.Contains(e.simple, qs) },
	}
	for _, match := range stages {
		for _, e := range m.dataset.entries {
			if match(e) {
				return e.record, true
			}
		}
	}
	return Record{}, false
}
