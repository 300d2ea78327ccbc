package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息（沿用前端既有欄位）
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 可以穿透
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，WithErr 產生的副本仍與原預定義錯誤相等
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// WithErr 複製預定義錯誤並附上原始錯誤
func (e *CustomError) WithErr(err error) *CustomError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage 複製預定義錯誤並替換訊息
func (e *CustomError) WithMessage(msg string) *CustomError {
	cp := *e
	cp.Message = msg
	return &cp
}

// Response 轉換為 API 回應，debug 時附上原始錯誤
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{Error: e.Message, Code: e.Code}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 取出 CustomError；ValidationError 轉為 400，其餘視為 500
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrInvalidRequest.WithMessage(ve.message)
	}
	return ErrInternalError.WithErr(err)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "Unauthorized", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "Request timeout", http.StatusRequestTimeout, nil)
	ErrPayloadTooLarge = NewError(ErrCodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrPlantNameRequired   = NewError("PLANT_NAME_REQUIRED", "Please enter a plant name.", http.StatusBadRequest, nil)
	ErrPlantNotFound       = NewError("PLANT_NOT_FOUND", "Plant not found.", http.StatusNotFound, nil)
	ErrInvalidReading      = NewError("INVALID_READING", "Please enter numeric values for all parameters.", http.StatusBadRequest, nil)
	ErrInvalidCredentials  = NewError("INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized, nil)
	ErrUserExists          = NewError("USER_EXISTS", "User already exists", http.StatusBadRequest, nil)
	ErrNoFileUploaded      = NewError("NO_FILE", "No file uploaded", http.StatusBadRequest, nil)
	ErrEmptyFilename       = NewError("EMPTY_FILENAME", "Empty filename", http.StatusBadRequest, nil)
	ErrInvalidImageFormat  = NewError("INVALID_IMAGE_FORMAT", "Invalid image format", http.StatusUnprocessableEntity, nil)
	ErrClassifierFailure   = NewError("CLASSIFIER_ERROR", "Disease classifier failed", http.StatusBadGateway, nil)
	ErrClassifierQueueFull = NewError("CLASSIFIER_BUSY", "Disease classifier is busy", http.StatusServiceUnavailable, nil)
	ErrCacheFull           = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheMiss           = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil)
)
