package disease

import (
	"errors"
	"io"
	"net/http"
	"time"

	"hydro-advisor/internal/api/handlers"
	"hydro-advisor/internal/core/disease"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const formField = "file"

// ImageRequest JSON 上傳，image 為 data URI 或純 base64
type ImageRequest struct {
	Image string `json:"image"`
}

// Handler 葉片病害辨識
type Handler struct {
	service  *disease.Service
	maxBytes int64
	debug    bool
}

// NewHandler 創建處理程序；service 為 nil 時端點回應 503
func NewHandler(service *disease.Service, maxBytes int64, debug bool) *Handler {
	return &Handler{service: service, maxBytes: maxBytes, debug: debug}
}

// HandlePredict 接收 multipart 檔案或 JSON base64 圖片，回傳 {disease, confidence}
func (h *Handler) HandlePredict(c *gin.Context) {
	requestID := handlers.RequestID(c)

	if h.service == nil {
		handlers.Error(c, common.ErrServiceUnavailable.WithMessage("Disease classifier is disabled"), h.debug)
		return
	}

	var data []byte
	var err error
	if c.ContentType() == gin.MIMEJSON {
		data, err = h.readJSON(c)
	} else {
		data, err = h.readMultipart(c)
	}
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	common.LogInfo("開始處理病害辨識請求",
		zap.Int("size", len(data)),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	prediction, err := h.service.Diagnose(c.Request.Context(), data)
	common.LogClassifierCall(time.Since(start), err, requestID)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func (h *Handler) readMultipart(c *gin.Context) ([]byte, error) {
	fileHeader, err := c.FormFile(formField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, common.ErrPayloadTooLarge.WithErr(err)
		}
		return nil, common.ErrNoFileUploaded.WithErr(err)
	}
	if fileHeader.Filename == "" {
		return nil, common.ErrEmptyFilename
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, common.ErrInternalError.WithErr(err)
	}
	return data, nil
}

func (h *Handler) readJSON(c *gin.Context) ([]byte, error) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, common.ErrInvalidRequest.WithErr(err)
	}
	if req.Image == "" {
		return nil, common.ErrNoFileUploaded
	}

	data, err := disease.DecodeDataURI(req.Image, h.maxBytes)
	if err != nil {
		return nil, common.ErrInvalidImageFormat.WithErr(err)
	}
	return data, nil
}
