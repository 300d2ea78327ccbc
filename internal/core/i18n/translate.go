package i18n

import "strings"

// 支援的語言
const (
	English = "en"
	Hindi   = "hi"
	Telugu  = "te"
)

var translations = map[string]map[string]string{
	Hindi: {
		"Invalid credentials":                             "अमान्य विवरण",
		"User already exists":                             "उपयोगकर्ता पहले से मौजूद है",
		"Please enter numeric values for all parameters.": "कृपया सभी मानों के लिए संख्यात्मक मान दर्ज करें।",
		"Conditions are optimal!":                         "परिस्थितियाँ आदर्श हैं!",
	},
	Telugu: {
		"Invalid credentials":                             "చెల్లని సమాచారం",
		"User already exists":                             "వాడుకరి ఇప్పటికే ఉంది",
		"Please enter numeric values for all parameters.": "అన్ని విలువలకు సంఖ్యా విలువలు ఇవ్వండి.",
		"Conditions are optimal!":                         "స్థితులు ఉత్తమంగా ఉన్నాయి!",
	},
}

// Translate 翻譯固定訊息；未知語言或訊息原樣回傳
//
// 訊息可帶有前置圖示（如 "✅ Conditions are optimal!"），圖示會保留。
func Translate(msg, lang string) string {
	table, ok := translations[Normalize(lang)]
	if !ok {
		return msg
	}
	if t, ok := table[msg]; ok {
		return t
	}
	for src, dst := range table {
		if prefix, found := strings.CutSuffix(msg, src); found && isIconPrefix(prefix) {
			return prefix + dst
		}
	}
	return msg
}

// Normalize 將 "hi-IN"、"te_IN"、"HI" 之類的值轉為主語言代碼
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_,;"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return English
	}
	return lang
}

// isIconPrefix 前綴只包含圖示與空白
func isIconPrefix(prefix string) bool {
	if strings.TrimSpace(prefix) == "" {
		return false
	}
	for _, r := range prefix {
		if r < 0x80 && r != ' ' {
			return false
		}
	}
	return true
}
