package disease

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// 模型輸入尺寸
const (
	InputSize     = 225
	InputChannels = 3
)

// DefaultMaxPixels 解碼前允許的最大像素數（寬 × 高）
const DefaultMaxPixels = 16_000_000

var (
	// ErrEmptyImage 圖片內容為空
	ErrEmptyImage = errors.New("image data is empty")
	// ErrImageTooLarge 圖片宣告的尺寸超過上限
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

// Tensor HWC 排列的 RGB 浮點張量，數值範圍 [0,1]
type Tensor struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// At 取得 (y, x, c) 的值
func (t *Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width+x)*t.Channels+c]
}

// Nested 轉為 [H][W][C] 巢狀陣列，供 JSON 傳送
func (t *Tensor) Nested() [][][]float32 {
	out := make([][][]float32, t.Height)
	for y := 0; y < t.Height; y++ {
		row := make([][]float32, t.Width)
		for x := 0; x < t.Width; x++ {
			off := (y*t.Width + x) * t.Channels
			row[x] = t.Data[off : off+t.Channels : off+t.Channels]
		}
		out[y] = row
	}
	return out
}

// Preprocess 解碼圖片、最近鄰縮放到 225x225，並把 RGB 轉為 [0,1] 浮點
//
// 解碼前先讀取表頭尺寸，寬 × 高超過 maxPixels 時直接拒絕；maxPixels <= 0 使用 DefaultMaxPixels。
func Preprocess(data []byte, maxPixels int) (*Tensor, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d (max %d pixels)", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	t := &Tensor{
		Height:   InputSize,
		Width:    InputSize,
		Channels: InputChannels,
		Data:     make([]float32, InputSize*InputSize*InputChannels),
	}
	i := 0
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			off := dst.PixOffset(x, y)
			t.Data[i] = float32(dst.Pix[off]) / 255
			t.Data[i+1] = float32(dst.Pix[off+1]) / 255
			t.Data[i+2] = float32(dst.Pix[off+2]) / 255
			i += InputChannels
		}
	}
	return t, format, nil
}
