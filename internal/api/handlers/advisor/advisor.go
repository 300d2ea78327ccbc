package advisor

import (
	"fmt"
	"net/http"
	"strings"

	"hydro-advisor/internal/api/handlers"
	"hydro-advisor/internal/core/chat"
	"hydro-advisor/internal/core/i18n"
	"hydro-advisor/internal/core/plant"
	"hydro-advisor/internal/core/recommend"
	"hydro-advisor/internal/core/symptom"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// readingField 讀數欄位與可接受的別名（表單沿用舊欄位名）
type readingField struct {
	keys []string
	set  func(r *recommend.Reading, v float64)
}

var readingFields = []readingField{
	{[]string{"temperature_c", "temperature"}, func(r *recommend.Reading, v float64) { r.TempC = v }},
	{[]string{"ph"}, func(r *recommend.Reading, v float64) { r.PH = v }},
	{[]string{"humidity_pct", "humidity"}, func(r *recommend.Reading, v float64) { r.Humidity = v }},
	{[]string{"nutrient_ppm", "nutrient"}, func(r *recommend.Reading, v float64) { r.NutrientPPM = v }},
}

// Optimal 最佳條件，缺值時為 null
type Optimal struct {
	TempC       *float64 `json:"optimal_temp_c"`
	PH          *float64 `json:"optimal_ph"`
	Humidity    *float64 `json:"optimal_humidity"`
	NutrientPPM *float64 `json:"optimal_nutrient_ppm"`
}

// PredictResponse 植物條件查詢回應
type PredictResponse struct {
	PlantName   string                 `json:"plant_name"`
	MatchedName string                 `json:"matched_name"`
	Optimal     Optimal                `json:"optimal"`
	Suggestions []recommend.Suggestion `json:"suggestions,omitempty"`
}

// ChatRequest 聊天請求
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse 聊天回應，response 與 reply 內容相同以相容舊前端
type ChatResponse struct {
	Response string      `json:"response"`
	Reply    string      `json:"reply"`
	Intent   chat.Intent `json:"intent"`
}

// Handler 植物條件、植物清單與聊天
type Handler struct {
	dataset   *plant.Dataset
	matcher   *plant.Matcher
	assistant *chat.Assistant
	debug     bool
}

// NewHandler 創建處理程序
func NewHandler(dataset *plant.Dataset, detector *symptom.Detector, debug bool) *Handler {
	matcher := plant.NewMatcher(dataset)
	return &Handler{
		dataset:   dataset,
		matcher:   matcher,
		assistant: chat.NewAssistant(matcher, detector),
		debug:     debug,
	}
}

// HandlePredict 查詢植物最佳條件，有讀數時附上調整建議
func (h *Handler) HandlePredict(c *gin.Context) {
	requestID := handlers.RequestID(c)

	name, values, err := bindPredict(c)
	if err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		handlers.Error(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	if strings.TrimSpace(name) == "" {
		handlers.Error(c, common.ErrPlantNameRequired, h.debug)
		return
	}

	rec, ok := h.matcher.Resolve(name)
	if !ok {
		handlers.Error(c, common.ErrPlantNotFound.WithMessage(fmt.Sprintf("Plant '%s' not found.", name)), h.debug)
		return
	}

	reading, supplied, err := parseReading(values)
	if err != nil {
		handlers.Error(c, common.ErrInvalidReading.WithErr(err), h.debug)
		return
	}

	resp := PredictResponse{
		PlantName:   name,
		MatchedName: rec.Name,
		Optimal: Optimal{
			TempC:       rec.TempC,
			PH:          rec.PH,
			Humidity:    rec.Humidity,
			NutrientPPM: rec.NutrientPPM,
		},
	}

	if supplied {
		result := recommend.Evaluate(reading, rec)
		for param, skipErr := range result.Skipped {
			common.LogDebug("Parameter skipped",
				zap.String("plant", rec.Name),
				zap.String("parameter", string(param)),
				zap.Error(skipErr),
				zap.String("request_id", requestID),
			)
		}

		lang := handlers.Language(c)
		resp.Suggestions = result.Suggestions
		for i := range resp.Suggestions {
			resp.Suggestions[i].Message = i18n.Translate(resp.Suggestions[i].Message, lang)
		}
	}

	common.LogInfo("植物條件查詢完成",
		zap.String("query", name),
		zap.String("matched", rec.Name),
		zap.Int("suggestions", len(resp.Suggestions)),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, resp)
}

// bindPredict 讀取 JSON 或表單中的植物名稱與讀數
func bindPredict(c *gin.Context) (string, map[string]interface{}, error) {
	values := make(map[string]interface{})

	if c.ContentType() == gin.MIMEJSON {
		var payload map[string]interface{}
		if err := common.DecodeJSON(c.Request.Body, &payload); err != nil {
			return "", nil, err
		}
		for _, f := range readingFields {
			for _, key := range f.keys {
				if v, ok := payload[key]; ok && v != nil {
					values[f.keys[0]] = v
					break
				}
			}
		}
		return common.OptionalString(payload["plant_name"]), values, nil
	}

	for _, f := range readingFields {
		for _, key := range f.keys {
			if v := c.PostForm(key); v != "" {
				values[f.keys[0]] = v
				break
			}
		}
	}
	return c.PostForm("plant_name"), values, nil
}

// parseReading 缺少的讀數視為 0；supplied 表示至少提供了一個讀數，明確送出的 0 也算
//
// 非數字的值回傳 common.ValidationError。
func parseReading(values map[string]interface{}) (recommend.Reading, bool, error) {
	var reading recommend.Reading
	supplied := false
	for _, f := range readingFields {
		v, present, err := common.OptionalFloat(values[f.keys[0]])
		if err != nil {
			return recommend.Reading{}, false, common.NewValidationError(fmt.Sprintf("%s: %v", f.keys[0], err))
		}
		if present {
			f.set(&reading, v)
			supplied = true
		}
	}
	return reading, supplied, nil
}

// HandlePlants 列出資料集中的植物名稱
func (h *Handler) HandlePlants(c *gin.Context) {
	names := h.dataset.Names()
	c.JSON(http.StatusOK, gin.H{
		"plants": names,
		"count":  len(names),
	})
}

// HandleChat 規則式聊天回覆
func (h *Handler) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", handlers.RequestID(c)))
		handlers.Error(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	reply := h.assistant.Reply(req.Message)
	common.LogDebug("Chat reply",
		zap.String("intent", string(reply.Intent)),
		zap.String("request_id", handlers.RequestID(c)),
	)
	c.JSON(http.StatusOK, ChatResponse{
		Response: reply.Text,
		Reply:    reply.Text,
		Intent:   reply.Intent,
	})
}
