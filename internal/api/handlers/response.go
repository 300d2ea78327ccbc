package handlers

import (
	"hydro-advisor/internal/core/i18n"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestID 取得請求 ID，requestid 中間件未設置時讀取 header
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Language 回應語言：?lang= 優先，其次 Accept-Language
func Language(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return i18n.Normalize(lang)
	}
	return i18n.Normalize(c.GetHeader("Accept-Language"))
}

// Error 以 CustomError 的狀態碼回應 {"error","code"}，錯誤訊息依語言翻譯
//
// ValidationError 一律回應 400。
func Error(c *gin.Context, err error, debug bool) {
	ce := common.AsCustomError(err)
	resp := ce.Response(debug)
	resp.Error = i18n.Translate(resp.Error, Language(c))

	if common.IsValidationError(err) {
		common.LogDebug("輸入驗證失敗",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestID(c)),
		)
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗",
			zap.Error(err),
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestID(c)),
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, resp)
}
