package chat

import (
	"fmt"
	"strings"
	"unicode"

	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/symptom"
	"hydro-advisor/internal/pkg/common"
)

// 固定回覆
const (
	GreetingReply = "👋 Hello! I can help you find optimal hydroponic conditions for your plants."
	FallbackReply = "🤖 Sorry, I didn't understand that."
)

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true}

// Intent 回覆來源
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentSymptom  Intent = "symptom"
	IntentPlant    Intent = "plant"
	IntentUnknown  Intent = "unknown"
)

// Reply 聊天回覆
type Reply struct {
	Intent Intent `json:"intent"`
	Text   string `json:"text"`
}

// Assistant 規則式聊天助理
type Assistant struct {
	matcher  *plant.Matcher
	detector *symptom.Detector
}

// NewAssistant 創建聊天助理
func NewAssistant(matcher *plant.Matcher, detector *symptom.Detector) *Assistant {
	return &Assistant{matcher: matcher, detector: detector}
}

// Reply 依序判斷：問候、症狀、植物名稱，都不符合時回覆預設訊息
func (a *Assistant) Reply(message string) Reply {
	msg := strings.TrimSpace(message)

	if isGreeting(msg) {
		return Reply{Intent: IntentGreeting, Text: GreetingReply}
	}
	if entry, ok := a.detector.Detect(msg); ok {
		return Reply{Intent: IntentSymptom, Text: entry.Info}
	}
	if rec, ok := a.matcher.Resolve(msg); ok {
		return Reply{Intent: IntentPlant, Text: FormatConditions(rec)}
	}
	return Reply{Intent: IntentUnknown, Text: FallbackReply}
}

// isGreeting 以整字比對，避免 "white" 之類的字誤判為 "hi"
func isGreeting(msg string) bool {
	words := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if greetings[w] {
			return true
		}
	}
	return false
}

// FormatConditions 植物最佳條件摘要
func FormatConditions(rec plant.Record) string {
	return fmt.Sprintf("🌿 Optimal conditions for %s:\n"+
		"- Temperature: %s°C\n"+
		"- pH: %s\n"+
		"- Humidity: %s%%\n"+
		"- Nutrients: %s ppm",
		rec.Name, value(rec.TempC), value(rec.PH), value(rec.Humidity), value(rec.NutrientPPM))
}

func value(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return common.FormatDecimal(*v)
}
