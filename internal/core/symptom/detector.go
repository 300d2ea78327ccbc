package symptom

import "strings"

// Entry 一種病害/症狀類別
type Entry struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Info     string   `json:"info"`
}

// 表格順序即比對順序
var defaultTable = []Entry{
	{
		Name:     "powdery mildew",
		Keywords: []string{"powdery", "white powder", "mildew"},
		Info:     "🌿 Powdery mildew is a fungal disease causing white powdery spots on leaves.",
	},
	{
		Name:     "rust",
		Keywords: []string{"rust", "orange spots", "brown pustules"},
		Info:     "🌿 Rust disease causes orange/brown pustules on leaves, reduces photosynthesis.",
	},
	{
		Name:     "yellowing",
		Keywords: []string{"yellow", "turning yellow", "chlorosis"},
		Info:     "🌿 Yellowing leaves may indicate nutrient deficiency or stress.",
	},
	{
		Name:     "spots",
		Keywords: []string{"spots", "brown spots", "black spots", "leaf spots"},
		Info:     "🌿 Brown or black spots indicate fungal or bacterial infection.",
	},
	{
		Name:     "leaf disease",
		Keywords: []string{"disease", "ill", "sick", "leaf issue", "plant issue"},
		Info:     "🌿 General leaf disease detected. You can upload an image for precise prediction.",
	},
}

// Detector 關鍵字症狀偵測器，建立後唯讀
type Detector struct {
	table []Entry
}

// NewDetector 使用內建症狀表
func NewDetector() *Detector {
	return NewDetectorWithTable(defaultTable)
}

// NewDetectorWithTable 使用自訂症狀表（關鍵字會轉小寫）
func NewDetectorWithTable(table []Entry) *Detector {
	cp := make([]Entry, len(table))
	for i, e := range table {
		kws := make([]string, len(e.Keywords))
		for j, kw := range e.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		cp[i] = Entry{Name: e.Name, Keywords: kws, Info: e.Info}
	}
	return &Detector{table: cp}
}

// Detect 回傳表格順序中第一個有關鍵字出現在輸入中的類別
func (d *Detector) Detect(text string) (Entry, bool) {
	msg := strings.ToLower(text)
	for _, e := range d.table {
		for _, kw := range e.Keywords {
			if strings.Contains(msg, kw) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Categories 依比對順序回傳類別名稱
func (d *Detector) Categories() []string {
	names := make([]string, len(d.table))
	for i, e := range d.table {
		names[i] = e.Name
	}
	return names
}
