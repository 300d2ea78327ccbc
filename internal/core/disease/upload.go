package disease

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI 不是 data:image/...;base64, 格式
var ErrInvalidDataURI = errors.New("invalid image data uri")

// DecodeDataURI 解析前端以 JSON 傳送的 base64 圖片，接受 data URI 或純 base64
func DecodeDataURI(imageData string, maxBytes int64) ([]byte, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, ErrEmptyImage
	}

	payload := imageData
	if strings.HasPrefix(imageData, "data:") {
		if !strings.HasPrefix(imageData, "data:image/") {
			return nil, ErrInvalidDataURI
		}
		header, data, found := strings.Cut(imageData, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, ErrInvalidDataURI
		}
		payload = data
	}

	// 先以編碼長度估算，避免解碼超大內容
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, fmt.Errorf("image size exceeds maximum limit of %d bytes", maxBytes)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}
	if maxBytes > 0 && int64(len(decoded)) > maxBytes {
		return nil, fmt.Errorf("image size exceeds maximum limit of %d bytes", maxBytes)
	}
	return decoded, nil
}
